package api

import (
	"github.com/tigertrust/tigertrust/internal/identity"
	"github.com/tigertrust/tigertrust/internal/services"
)

type profileStoreAdapter struct {
	store Store
}

// NewProfileStore adapts a Store to the service-layer interface, turning
// the bool/nil conventions into ServiceError values.
func NewProfileStore(store Store) services.ProfileStore {
	return &profileStoreAdapter{store: store}
}

func (a *profileStoreAdapter) GetProfile(owner identity.Key) (*services.Profile, error) {
	return a.store.GetProfile(owner), nil
}

func (a *profileStoreAdapter) PutProfile(p *services.Profile) error {
	if p == nil {
		return services.NewInvalidError("profile required")
	}
	if !a.store.UpdateProfile(p) {
		return services.NewNotFoundError("profile not found")
	}
	return nil
}

func (a *profileStoreAdapter) CreateProfile(p *services.Profile) error {
	if p == nil {
		return services.NewInvalidError("profile required")
	}
	if !a.store.AddProfile(p) {
		return services.NewConflictError("profile already exists")
	}
	return nil
}

var _ services.ProfileStore = (*profileStoreAdapter)(nil)
