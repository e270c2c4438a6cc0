package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/events"
)

// AuditService writes security-relevant events to the audit log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service. Entries are tagged with the audit channel.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTokenIssued, a.handleTokenIssued)
	a.dispatcher.Subscribe(events.EventTokenRejected, a.handleTokenRejected)
	a.dispatcher.Subscribe(events.EventTokenRevoked, a.handleTokenRevoked)
	a.dispatcher.Subscribe(events.EventAccessDenied, a.handleAccessDenied)
}

func (a *AuditService) handleTokenIssued(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if payload, ok := event.Payload.(events.TokenIssuedPayload); ok {
		fields = append(fields,
			zap.String("token_id", payload.TokenID),
			zap.String("grant_type", payload.GrantType),
			zap.Strings("scopes", payload.Scopes),
			zap.Time("expires_at", payload.ExpiresAt),
		)
	}
	a.logger.Info("TokenIssued", fields...)
	return nil
}

func (a *AuditService) handleTokenRejected(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if payload, ok := event.Payload.(events.TokenRejectedPayload); ok {
		fields = append(fields,
			zap.String("grant_type", payload.GrantType),
			zap.String("reason", payload.Reason),
		)
	}
	a.logger.Warn("TokenRejected", fields...)
	return nil
}

func (a *AuditService) handleTokenRevoked(_ context.Context, event events.Event) error {
	a.logger.Info("TokenRevoked", append(a.baseFields(event), zap.Any("payload", event.Payload))...)
	return nil
}

func (a *AuditService) handleAccessDenied(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if payload, ok := event.Payload.(events.AccessDeniedPayload); ok {
		fields = append(fields,
			zap.String("method", payload.Method),
			zap.String("path", payload.Path),
			zap.Strings("requirements", payload.Requirements),
		)
	}
	a.logger.Warn("AccessDenied", fields...)
	return nil
}

func (a *AuditService) baseFields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("client_id", event.ClientID),
		zap.String("subject", event.Subject),
		zap.Time("timestamp", event.Timestamp),
	}
}
