package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tigertrust/tigertrust/internal/identity"
)

// Event payloads carry the post-update values so consumers never need to
// read the profile back.

type ProfileInitializedEvent struct {
	Owner          identity.Key `json:"owner"`
	ProfileAddress identity.Key `json:"profile_address"`
	DIDAddress     identity.Key `json:"did_address"`
}

type HumanVerificationUpdatedEvent struct {
	ProfileAddress identity.Key `json:"profile_address"`
	IsVerified     bool         `json:"is_verified"`
	NewTigerScore  uint16       `json:"new_tiger_score"`
}

type ReputationFactorsUpdatedEvent struct {
	ProfileAddress identity.Key `json:"profile_address"`
	NewTigerScore  uint16       `json:"new_tiger_score"`
	NewLevelUpTier uint8        `json:"new_level_up_tier"`
}

type TigerScoreUpdatedEvent struct {
	ProfileAddress identity.Key `json:"profile_address"`
	NewScore       uint16       `json:"new_score"`
	NewTier        uint8        `json:"new_tier"`
}

// Notifier receives one call per mutation, after the record has been stored.
// Delivery is fire-and-forget from the service's point of view.
type Notifier interface {
	ProfileInitialized(e ProfileInitializedEvent)
	HumanVerificationUpdated(e HumanVerificationUpdatedEvent)
	ReputationFactorsUpdated(e ReputationFactorsUpdatedEvent)
	TigerScoreUpdated(e TigerScoreUpdatedEvent)
}

type NoopNotifier struct{}

func (NoopNotifier) ProfileInitialized(ProfileInitializedEvent)             {}
func (NoopNotifier) HumanVerificationUpdated(HumanVerificationUpdatedEvent) {}
func (NoopNotifier) ReputationFactorsUpdated(ReputationFactorsUpdatedEvent) {}
func (NoopNotifier) TigerScoreUpdated(TigerScoreUpdatedEvent)               {}

// AuditSink is the slice of the store the audit notifier needs.
type AuditSink interface {
	AddAudit(e AuditEntry)
}

// AuditNotifier records every event as an audit entry.
type AuditNotifier struct {
	sink  AuditSink
	now   func() time.Time
	newID func() string
}

func NewAuditNotifier(sink AuditSink) *AuditNotifier {
	return &AuditNotifier{
		sink:  sink,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func (n *AuditNotifier) add(action, target, note string) {
	n.sink.AddAudit(AuditEntry{
		ID:     n.newID(),
		Time:   n.now(),
		Actor:  "ledger",
		Action: action,
		Target: target,
		Note:   note,
	})
}

func (n *AuditNotifier) ProfileInitialized(e ProfileInitializedEvent) {
	n.add("profile_initialized", e.Owner.String(), "did="+e.DIDAddress.String())
}

func (n *AuditNotifier) HumanVerificationUpdated(e HumanVerificationUpdatedEvent) {
	n.add("human_verification_updated", e.ProfileAddress.String(),
		fmt.Sprintf("verified=%t score=%d", e.IsVerified, e.NewTigerScore))
}

func (n *AuditNotifier) ReputationFactorsUpdated(e ReputationFactorsUpdatedEvent) {
	n.add("reputation_factors_updated", e.ProfileAddress.String(),
		fmt.Sprintf("score=%d tier=%d", e.NewTigerScore, e.NewLevelUpTier))
}

func (n *AuditNotifier) TigerScoreUpdated(e TigerScoreUpdatedEvent) {
	n.add("tigerscore_updated", e.ProfileAddress.String(),
		fmt.Sprintf("score=%d tier=%d", e.NewScore, e.NewTier))
}

var _ Notifier = NoopNotifier{}
var _ Notifier = (*AuditNotifier)(nil)
