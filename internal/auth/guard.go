package auth

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/authz"
	"github.com/spec-kit/identity-service/internal/events"
	"github.com/spec-kit/identity-service/internal/observability"
	apperrors "github.com/spec-kit/identity-service/pkg/util"
)

// Guard turns declared requirements into fiber handlers backed by the evaluator.
type Guard struct {
	evaluator  *authz.Evaluator
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewGuard constructs a guard. dispatcher and metrics may be nil; a nil now uses
// time.Now.
func NewGuard(evaluator *authz.Evaluator, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger, now func() time.Time) *Guard {
	if now == nil {
		now = time.Now
	}
	return &Guard{evaluator: evaluator, dispatcher: dispatcher, metrics: metrics, logger: logger, now: now}
}

// Require validates reqs and returns a handler enforcing all of them. It must run
// after AuthMiddleware. Validation errors, such as a policy that was never
// registered, are returned so route registration can fail at startup.
func (g *Guard) Require(reqs ...authz.Requirement) (fiber.Handler, error) {
	if err := g.evaluator.Validate(reqs...); err != nil {
		return nil, err
	}
	declared := make([]string, 0, len(reqs))
	for _, req := range reqs {
		declared = append(declared, req.String())
	}

	return func(c *fiber.Ctx) error {
		token, ok := TokenFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}

		decision := g.evaluator.Evaluate(token.ClaimSet(), reqs)
		g.metrics.RecordDecision(c.Route().Path, decision.String())
		if decision == authz.Allow {
			return c.Next()
		}

		g.publishDenied(c.UserContext(), c.Method(), c.Path(), token.ClientID, token.Subject, declared)
		return apperrors.NewForbidden("insufficient permissions")
	}, nil
}

func (g *Guard) publishDenied(ctx context.Context, method, path, clientID, subject string, declared []string) {
	if g.dispatcher == nil {
		return
	}
	err := g.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventAccessDenied,
		ClientID:  clientID,
		Subject:   subject,
		Timestamp: g.now().UTC(),
		Payload:   events.AccessDeniedPayload{Method: method, Path: path, Requirements: declared},
	})
	if err != nil {
		g.logger.Warn("publish access denied event", zap.Error(err))
	}
}
