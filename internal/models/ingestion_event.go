package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EventUserCreated  = "user.created"
	EventUserSignedIn = "user.signed_in"
)

// IngestionOutcome is the terminal state of one processed webhook event.
type IngestionOutcome string

const (
	OutcomeIgnored  IngestionOutcome = "ignored"
	OutcomeRejected IngestionOutcome = "rejected"
	OutcomeExists   IngestionOutcome = "exists"
	OutcomeCreated  IngestionOutcome = "created"
	OutcomeFailed   IngestionOutcome = "failed"
)

// IngestionEvent is the audit record of a webhook delivery, stored in MongoDB.
type IngestionEvent struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	EventType  string             `json:"event_type" bson:"event_type"`
	Subject    string             `json:"subject,omitempty" bson:"subject,omitempty"`
	Outcome    IngestionOutcome   `json:"outcome" bson:"outcome"`
	Message    string             `json:"message" bson:"message"`
	Payload    string             `json:"payload,omitempty" bson:"payload,omitempty"`
	ReceivedAt time.Time          `json:"received_at" bson:"received_at"`
}

// WebhookEnvelope is the body of an identity-provider webhook. Some senders
// wrap the user in "data", others post the user object directly.
type WebhookEnvelope struct {
	Type string       `json:"type"`
	Data *WebhookUser `json:"data"`
	WebhookUser
}

// User returns the payload user of the envelope.
func (e *WebhookEnvelope) User() *WebhookUser {
	if e.Data != nil {
		return e.Data
	}
	return &e.WebhookUser
}

type WebhookUser struct {
	ID             string                `json:"id"`
	EmailAddresses []WebhookEmailAddress `json:"email_addresses"`
	FirstName      string                `json:"first_name"`
	LastName       string                `json:"last_name"`
	ImageURL       string                `json:"image_url"`
}

type WebhookEmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// PrimaryEmail is the first listed email address, or "".
func (u *WebhookUser) PrimaryEmail() string {
	if len(u.EmailAddresses) == 0 {
		return ""
	}
	return strings.TrimSpace(u.EmailAddresses[0].EmailAddress)
}

// ToUser maps the payload to a local user, defaulting absent fields to "".
func (u *WebhookUser) ToUser() *User {
	return &User{
		ID:        u.ID,
		Email:     u.PrimaryEmail(),
		Name:      strings.TrimSpace(u.FirstName + " " + u.LastName),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		ImageURL:  u.ImageURL,
	}
}
