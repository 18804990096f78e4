package api

import (
	"github.com/tigertrust/tigertrust/internal/identity"
	"github.com/tigertrust/tigertrust/internal/services"
)

// Store is the keyed profile storage surface shared by the in-memory and
// SQLite implementations. Getters return nil for missing records; mutators
// report success as a bool. The service-facing error semantics live in
// profileStoreAdapter.
type Store interface {
	// AddProfile stores a new profile, returning false if one already
	// exists for the owner. The existing record is left untouched.
	AddProfile(p *services.Profile) bool
	// UpdateProfile overwrites an existing profile, returning false if
	// none exists.
	UpdateProfile(p *services.Profile) bool
	GetProfile(owner identity.Key) *services.Profile
	ListProfiles() []*services.Profile

	AddAudit(e services.AuditEntry)
	ListAudit() []services.AuditEntry
}

var _ Store = (*memoryStore)(nil)
