package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/identity-service/internal/domain"
)

var (
	// ErrClientNotFound is returned when no client matches the requested id.
	ErrClientNotFound = errors.New("client not found")
	// ErrDuplicateClient is a startup configuration error.
	ErrDuplicateClient = errors.New("duplicate client id")
)

// ClientRegistry is the immutable table of registered clients.
type ClientRegistry struct {
	clients map[string]*domain.Client
}

// NewClientRegistry builds the registry, rejecting empty or duplicate ids.
func NewClientRegistry(clients []domain.Client) (*ClientRegistry, error) {
	byID := make(map[string]*domain.Client, len(clients))
	for i := range clients {
		client := clients[i]
		if strings.TrimSpace(client.ID) == "" {
			return nil, fmt.Errorf("client at index %d: empty client id", i)
		}
		if _, exists := byID[client.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateClient, client.ID)
		}
		byID[client.ID] = &client
	}
	return &ClientRegistry{clients: byID}, nil
}

// FindClientByID returns the registered client. The returned value is shared and
// must not be modified.
func (r *ClientRegistry) FindClientByID(id string) (*domain.Client, error) {
	client, ok := r.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	return client, nil
}

// Len returns the number of registered clients.
func (r *ClientRegistry) Len() int {
	return len(r.clients)
}
