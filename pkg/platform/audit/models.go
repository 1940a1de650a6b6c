package audit

import (
	"context"
	"time"
)

// Event is emitted from services to capture marketplace actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Module    string            `json:"module"`
	Action    string            `json:"action"`
	Actor     string            `json:"actor"`             // base58 identity that signed the operation
	Subject   string            `json:"subject,omitempty"` // base58 address of the touched record
	RequestID string            `json:"request_id,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

type AuditEvent string

const (
	EventPlatformInitialized AuditEvent = "platform_initialized"
	EventAdminAdded          AuditEvent = "admin_added"
	EventFeesUpdated         AuditEvent = "fees_updated"

	EventUserRegistered AuditEvent = "user_registered"
	EventProfileEdited  AuditEvent = "profile_edited"

	EventPublicationCreated  AuditEvent = "publication_created"
	EventPublicationEdited   AuditEvent = "publication_edited"
	EventPublicationDelisted AuditEvent = "publication_delisted"

	EventAuthorAdded     AuditEvent = "author_added"
	EventAuthorConfirmed AuditEvent = "author_confirmed"

	EventPurchaseSettled AuditEvent = "purchase_settled"

	EventReviewSubmitted AuditEvent = "review_submitted"
	EventReviewEdited    AuditEvent = "review_edited"

	EventBadgeCategoryCreated AuditEvent = "badge_category_created"
	EventBadgeMinted          AuditEvent = "badge_minted"

	EventVaultWithdrawn    AuditEvent = "vault_withdrawn"
	EventPlatformWithdrawn AuditEvent = "platform_vault_withdrawn"
)

// Sink receives events. Stores are sinks that can also be queried.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store persists events.
type Store interface {
	Sink
	ListByActor(ctx context.Context, actor string) ([]Event, error)
}
