package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
)

const (
	msgEventIgnored    = "event ignored"
	msgMissingID       = "missing ID"
	msgMissingEmail    = "missing email"
	msgUserExists      = "user already exists"
	msgUserCreated     = "user created successfully"
	maxAuditPayloadLen = 16 << 10
)

// IngestionResult is the outcome reported back to the webhook sender.
type IngestionResult struct {
	EventType string
	Outcome   models.IngestionOutcome
	Message   string
}

// IngestionService turns identity-provider user events into local users.
type IngestionService struct {
	users  repositories.UserRepository
	events repositories.IngestionEventRepository
}

// NewIngestionService wires the webhook use case. events may be nil, which
// disables the audit trail.
func NewIngestionService(users repositories.UserRepository, events repositories.IngestionEventRepository) *IngestionService {
	return &IngestionService{users: users, events: events}
}

func isUserEvent(eventType string) bool {
	return eventType == models.EventUserCreated || eventType == models.EventUserSignedIn
}

// ResolveEventType picks the header event type when it is a user event,
// else the body type when that is one, else whichever is non-empty.
func ResolveEventType(headerType string, env *models.WebhookEnvelope) string {
	if isUserEvent(headerType) {
		return headerType
	}
	if isUserEvent(env.Type) {
		return env.Type
	}
	if headerType != "" {
		return headerType
	}
	return env.Type
}

// Ingest processes one delivery. Rejections come back as an error wrapping
// ErrInsufficientUserData together with a non-nil result.
func (s *IngestionService) Ingest(ctx context.Context, headerType string, env *models.WebhookEnvelope, raw []byte) (*IngestionResult, error) {
	result := &IngestionResult{EventType: ResolveEventType(headerType, env)}
	payload := env.User()

	if !isUserEvent(result.EventType) {
		result.Outcome, result.Message = models.OutcomeIgnored, msgEventIgnored
		slog.InfoContext(ctx, "Webhook event ignored", "event", result.EventType)
		s.record(ctx, result, "", raw)
		return result, nil
	}

	var missing string
	switch {
	case payload.ID == "":
		missing = msgMissingID
	case payload.PrimaryEmail() == "":
		missing = msgMissingEmail
	}
	if missing != "" {
		err := fmt.Errorf("%w - %s", ErrInsufficientUserData, missing)
		result.Outcome, result.Message = models.OutcomeRejected, err.Error()
		slog.WarnContext(ctx, "Webhook user data insufficient", "event", result.EventType, "reason", missing)
		s.record(ctx, result, payload.ID, raw)
		return result, err
	}

	created, err := s.users.CreateUserIfAbsent(ctx, payload.ToUser())
	if err != nil {
		result.Outcome, result.Message = models.OutcomeFailed, err.Error()
		s.record(ctx, result, payload.ID, raw)
		return result, fmt.Errorf("ingest %s for %s: %w", result.EventType, payload.ID, err)
	}

	if created {
		result.Outcome, result.Message = models.OutcomeCreated, msgUserCreated
		slog.InfoContext(ctx, "Webhook created user", "event", result.EventType, "user_id", payload.ID)
	} else {
		result.Outcome, result.Message = models.OutcomeExists, msgUserExists
	}
	s.record(ctx, result, payload.ID, raw)
	return result, nil
}

// record writes the audit entry. Audit failures never fail the delivery.
func (s *IngestionService) record(ctx context.Context, result *IngestionResult, subject string, raw []byte) {
	if s.events == nil {
		return
	}
	if len(raw) > maxAuditPayloadLen {
		raw = raw[:maxAuditPayloadLen]
	}
	event := &models.IngestionEvent{
		EventType:  result.EventType,
		Subject:    subject,
		Outcome:    result.Outcome,
		Message:    result.Message,
		Payload:    string(raw),
		ReceivedAt: time.Now(),
	}
	if err := s.events.RecordEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to record webhook event", "event", result.EventType, "err", err)
	}
}
