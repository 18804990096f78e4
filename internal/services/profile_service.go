package services

import (
	"github.com/tigertrust/tigertrust/internal/identity"
)

// ProfileStore is the persistence surface the service depends on. The store
// must serialize access per profile record; both the memory and SQLite
// implementations do.
type ProfileStore interface {
	GetProfile(owner identity.Key) (*Profile, error)
	PutProfile(p *Profile) error
	// CreateProfile fails with a conflict when a profile already exists
	// for the owner.
	CreateProfile(p *Profile) error
}

// ProfileService implements the four ledger operations. The admin signer
// set is injected at construction; every mutation except CreateProfile is
// gated on it.
type ProfileService struct {
	store  ProfileStore
	notify Notifier
	admins map[identity.Key]struct{}
}

func NewProfileService(store ProfileStore, notify Notifier, admins []identity.Key) *ProfileService {
	set := make(map[identity.Key]struct{}, len(admins))
	for _, k := range admins {
		if !k.IsZero() {
			set[k] = struct{}{}
		}
	}
	if notify == nil {
		notify = NoopNotifier{}
	}
	return &ProfileService{store: store, notify: notify, admins: set}
}

func (s *ProfileService) requireAdmin(caller identity.Key) error {
	if _, ok := s.admins[caller]; !ok {
		return NewUnauthorizedError("caller is not an authorized signer")
	}
	return nil
}

// CreateProfile initializes an all-zero profile for the owner. The profile
// address doubles as the DID address, set once here and never changed.
// Score starts at 0 with tier 0; no recompute happens until the first
// factor update.
func (s *ProfileService) CreateProfile(owner identity.Key) (*Profile, error) {
	if owner.IsZero() {
		return nil, NewInvalidError("owner key required")
	}
	p := &Profile{
		Owner:          owner,
		ProfileAddress: identity.DeriveProfileAddress(owner),
	}
	if err := s.store.CreateProfile(p); err != nil {
		return nil, err
	}
	s.notify.ProfileInitialized(ProfileInitializedEvent{
		Owner:          p.Owner,
		ProfileAddress: p.ProfileAddress,
		DIDAddress:     p.ProfileAddress,
	})
	return p, nil
}

// GetProfile returns the stored profile for an owner.
func (s *ProfileService) GetProfile(owner identity.Key) (*Profile, error) {
	if owner.IsZero() {
		return nil, NewInvalidError("owner key required")
	}
	return s.load(owner)
}

// SetHumanVerified records the admin-attested liveness check and recomputes
// score and tier.
func (s *ProfileService) SetHumanVerified(caller, owner identity.Key, verified bool) (*Profile, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}
	p, err := s.load(owner)
	if err != nil {
		return nil, err
	}
	p.IsHumanVerified = verified
	s.recompute(p)
	if err := s.store.PutProfile(p); err != nil {
		return nil, err
	}
	s.notify.HumanVerificationUpdated(HumanVerificationUpdatedEvent{
		ProfileAddress: p.ProfileAddress,
		IsVerified:     verified,
		NewTigerScore:  p.TigerScore,
	})
	return p, nil
}

// SetReputationFactors overwrites all six verified signals at once, clamping
// the regularity score, then recomputes score and tier.
func (s *ProfileService) SetReputationFactors(caller, owner identity.Key, f ReputationFactors) (*Profile, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}
	p, err := s.load(owner)
	if err != nil {
		return nil, err
	}
	p.WalletAgeMonths = f.WalletAgeMonths
	p.TransactionCount = f.TransactionCount
	p.HasNFT = f.HasNFT
	p.VerifiedCredentialsCount = f.VerifiedCredentialsCount
	p.HasIncomeVerification = f.HasIncomeVerification
	p.ActivityRegularityScore = ClampActivityRegularity(f.ActivityRegularityScore)
	s.recompute(p)
	if err := s.store.PutProfile(p); err != nil {
		return nil, err
	}
	s.notify.ReputationFactorsUpdated(ReputationFactorsUpdatedEvent{
		ProfileAddress: p.ProfileAddress,
		NewTigerScore:  p.TigerScore,
		NewLevelUpTier: p.LevelUpTier,
	})
	return p, nil
}

// SetScoreOverride stores min(newScore, ScoreOverrideCap) and the supplied
// tier verbatim. The tier is trusted as given — deliberately not re-derived
// from the score, and the 660 cap applies only on this path.
func (s *ProfileService) SetScoreOverride(caller, owner identity.Key, newScore uint16, newTier uint8) (*Profile, error) {
	if err := s.requireAdmin(caller); err != nil {
		return nil, err
	}
	p, err := s.load(owner)
	if err != nil {
		return nil, err
	}
	if newScore > ScoreOverrideCap {
		newScore = ScoreOverrideCap
	}
	p.TigerScore = newScore
	p.LevelUpTier = newTier
	if err := s.store.PutProfile(p); err != nil {
		return nil, err
	}
	s.notify.TigerScoreUpdated(TigerScoreUpdatedEvent{
		ProfileAddress: p.ProfileAddress,
		NewScore:       p.TigerScore,
		NewTier:        p.LevelUpTier,
	})
	return p, nil
}

func (s *ProfileService) load(owner identity.Key) (*Profile, error) {
	p, err := s.store.GetProfile(owner)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, NewNotFoundError("profile not found")
	}
	return p, nil
}

func (s *ProfileService) recompute(p *Profile) {
	p.TigerScore = ComputeScore(p)
	p.LevelUpTier = TierOf(p.TigerScore)
}
