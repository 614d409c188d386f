// Package audit provides security audit logging for SIEM consumption.
// Events are logged as structured JSON under the "security_audit" logger
// so they can be filtered and alerted on separately from application logs.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-journal/pkg/auth"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventOwnershipViolation is logged when the store hands back rows that
	// belong to someone other than the acting user.
	EventOwnershipViolation SecurityEventType = "ownership_violation"
	// EventIdentityMismatch is logged when the identity provider returns a
	// profile for a different user than the session names.
	EventIdentityMismatch SecurityEventType = "identity_mismatch"
	// EventUserProvisioned is logged when a user row is created on first login.
	EventUserProvisioned SecurityEventType = "user_provisioned"
)

// SecurityEvent represents an auditable security event.
type SecurityEvent struct {
	Timestamp  time.Time         `json:"timestamp"`
	EventType  SecurityEventType `json:"event_type"`
	UserID     string            `json:"user_id,omitempty"`
	ExternalID string            `json:"external_id,omitempty"`
	Details    any               `json:"details"`
	Severity   string            `json:"severity"` // info, warning, critical
}

// OwnershipDetails describes rows dropped by the ownership filter.
type OwnershipDetails struct {
	Resource string `json:"resource"`
	RecordID string `json:"record_id,omitempty"`
	Dropped  int    `json:"dropped"`
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor under the "security_audit"
// logger namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogOwnershipViolation records foreign rows that reached the service layer.
// Row-level security should make this impossible, so it is logged at ERROR
// with "critical" severity.
func (a *SecurityAuditor) LogOwnershipViolation(ctx context.Context, userID uuid.UUID, details OwnershipDetails) {
	event := a.event(ctx, EventOwnershipViolation, userID, details, "critical")

	a.logger.Error("Dropped records owned by another user",
		zap.String("event_json", marshal(event)),
		zap.String("user_id", event.UserID),
		zap.String("external_id", event.ExternalID),
		zap.String("resource", details.Resource),
		zap.Int("dropped", details.Dropped),
		zap.String("severity", event.Severity),
	)
}

// LogIdentityMismatch records a profile lookup that answered for the wrong user.
func (a *SecurityAuditor) LogIdentityMismatch(ctx context.Context, externalID, profileID string) {
	event := a.event(ctx, EventIdentityMismatch, uuid.Nil, map[string]string{
		"profile_id": profileID,
	}, "critical")
	event.ExternalID = externalID

	a.logger.Error("Identity profile does not match session",
		zap.String("event_json", marshal(event)),
		zap.String("external_id", externalID),
		zap.String("profile_id", profileID),
		zap.String("severity", event.Severity),
	)
}

// LogUserProvisioned records the creation of a user row.
func (a *SecurityAuditor) LogUserProvisioned(ctx context.Context, userID uuid.UUID, externalID string) {
	event := a.event(ctx, EventUserProvisioned, userID, map[string]string{}, "info")
	event.ExternalID = externalID

	a.logger.Info("User provisioned",
		zap.String("event_json", marshal(event)),
		zap.String("user_id", event.UserID),
		zap.String("external_id", externalID),
		zap.String("severity", event.Severity),
	)
}

func (a *SecurityAuditor) event(ctx context.Context, eventType SecurityEventType, userID uuid.UUID, details any, severity string) SecurityEvent {
	event := SecurityEvent{
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		ExternalID: auth.GetExternalIDFromContext(ctx),
		Details:    details,
		Severity:   severity,
	}
	if userID != uuid.Nil {
		event.UserID = userID.String()
	}
	return event
}

// marshal ignores the error: every event is built from known serializable types.
func marshal(event SecurityEvent) string {
	b, _ := json.Marshal(event)
	return string(b)
}
