package services

import (
	"testing"

	"github.com/tigertrust/tigertrust/internal/identity"
)

type stubProfileStore struct {
	profiles map[identity.Key]*Profile
	putErr   error
}

func newStubProfileStore() *stubProfileStore {
	return &stubProfileStore{profiles: map[identity.Key]*Profile{}}
}

func (s *stubProfileStore) GetProfile(owner identity.Key) (*Profile, error) {
	if p, ok := s.profiles[owner]; ok {
		copy := *p
		return &copy, nil
	}
	return nil, nil
}

func (s *stubProfileStore) PutProfile(p *Profile) error {
	if s.putErr != nil {
		return s.putErr
	}
	copy := *p
	s.profiles[p.Owner] = &copy
	return nil
}

func (s *stubProfileStore) CreateProfile(p *Profile) error {
	if _, ok := s.profiles[p.Owner]; ok {
		return NewConflictError("profile already exists")
	}
	copy := *p
	s.profiles[p.Owner] = &copy
	return nil
}

type recordingNotifier struct {
	initialized []ProfileInitializedEvent
	human       []HumanVerificationUpdatedEvent
	factors     []ReputationFactorsUpdatedEvent
	overrides   []TigerScoreUpdatedEvent
}

func (n *recordingNotifier) ProfileInitialized(e ProfileInitializedEvent) {
	n.initialized = append(n.initialized, e)
}

func (n *recordingNotifier) HumanVerificationUpdated(e HumanVerificationUpdatedEvent) {
	n.human = append(n.human, e)
}

func (n *recordingNotifier) ReputationFactorsUpdated(e ReputationFactorsUpdatedEvent) {
	n.factors = append(n.factors, e)
}

func (n *recordingNotifier) TigerScoreUpdated(e TigerScoreUpdatedEvent) {
	n.overrides = append(n.overrides, e)
}

func (n *recordingNotifier) total() int {
	return len(n.initialized) + len(n.human) + len(n.factors) + len(n.overrides)
}

func testKey(b byte) identity.Key {
	var k identity.Key
	k[0] = b
	return k
}

func newTestService(t *testing.T) (*ProfileService, *stubProfileStore, *recordingNotifier, identity.Key) {
	t.Helper()
	store := newStubProfileStore()
	notify := &recordingNotifier{}
	admin := testKey(0xAD)
	svc := NewProfileService(store, notify, []identity.Key{admin})
	return svc, store, notify, admin
}

func TestCreateProfile(t *testing.T) {
	svc, store, notify, _ := newTestService(t)
	owner := testKey(1)

	p, err := svc.CreateProfile(owner)
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if p.Owner != owner {
		t.Fatalf("owner mismatch")
	}
	if p.ProfileAddress != identity.DeriveProfileAddress(owner) {
		t.Fatalf("profile address not derived from owner")
	}
	if p.TigerScore != 0 || p.LevelUpTier != 0 {
		t.Fatalf("new profile should start at score 0 tier 0, got %d/%d", p.TigerScore, p.LevelUpTier)
	}
	if p.IsHumanVerified || p.HasNFT || p.HasIncomeVerification {
		t.Fatalf("new profile should have all flags false")
	}
	if len(notify.initialized) != 1 {
		t.Fatalf("expected one initialized event, got %d", len(notify.initialized))
	}
	if notify.initialized[0].DIDAddress != p.ProfileAddress {
		t.Fatalf("did address should equal profile address")
	}
	if store.profiles[owner] == nil {
		t.Fatalf("profile not stored")
	}
}

func TestCreateProfileTwiceConflicts(t *testing.T) {
	svc, store, notify, admin := newTestService(t)
	owner := testKey(2)

	if _, err := svc.CreateProfile(owner); err != nil {
		t.Fatalf("first CreateProfile: %v", err)
	}
	if _, err := svc.SetHumanVerified(admin, owner, true); err != nil {
		t.Fatalf("SetHumanVerified: %v", err)
	}
	before := *store.profiles[owner]
	events := notify.total()

	_, err := svc.CreateProfile(owner)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if *store.profiles[owner] != before {
		t.Fatalf("existing profile mutated by failed create")
	}
	if notify.total() != events {
		t.Fatalf("failed create emitted an event")
	}
}

func TestCreateProfileRejectsZeroOwner(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.CreateProfile(identity.Key{})
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestSetHumanVerified(t *testing.T) {
	svc, _, notify, admin := newTestService(t)
	owner := testKey(3)
	if _, err := svc.CreateProfile(owner); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}

	p, err := svc.SetHumanVerified(admin, owner, true)
	if err != nil {
		t.Fatalf("SetHumanVerified: %v", err)
	}
	if !p.IsHumanVerified {
		t.Fatalf("flag not set")
	}
	if p.TigerScore != 380 {
		t.Fatalf("score=%d, want 380", p.TigerScore)
	}
	if p.LevelUpTier != TierOf(p.TigerScore) {
		t.Fatalf("tier %d stale against score %d", p.LevelUpTier, p.TigerScore)
	}
	if len(notify.human) != 1 || notify.human[0].NewTigerScore != 380 {
		t.Fatalf("unexpected human verification events: %+v", notify.human)
	}

	// Clearing the flag recomputes back down.
	p, err = svc.SetHumanVerified(admin, owner, false)
	if err != nil {
		t.Fatalf("SetHumanVerified(false): %v", err)
	}
	if p.TigerScore != 300 || p.LevelUpTier != 2 {
		t.Fatalf("score/tier=%d/%d, want 300/2", p.TigerScore, p.LevelUpTier)
	}
}

func TestNonAdminRejected(t *testing.T) {
	svc, store, notify, _ := newTestService(t)
	owner := testKey(4)
	if _, err := svc.CreateProfile(owner); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	before := *store.profiles[owner]
	events := notify.total()
	intruder := testKey(0x66)

	if _, err := svc.SetHumanVerified(intruder, owner, true); !isUnauthorized(err) {
		t.Fatalf("SetHumanVerified by non-admin: %v", err)
	}
	if _, err := svc.SetReputationFactors(intruder, owner, ReputationFactors{HasNFT: true}); !isUnauthorized(err) {
		t.Fatalf("SetReputationFactors by non-admin: %v", err)
	}
	if _, err := svc.SetScoreOverride(intruder, owner, 100, 1); !isUnauthorized(err) {
		t.Fatalf("SetScoreOverride by non-admin: %v", err)
	}
	if *store.profiles[owner] != before {
		t.Fatalf("profile mutated by unauthorized caller")
	}
	if notify.total() != events {
		t.Fatalf("unauthorized call emitted an event")
	}
}

func TestSetReputationFactors(t *testing.T) {
	svc, _, notify, admin := newTestService(t)
	owner := testKey(5)
	if _, err := svc.CreateProfile(owner); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}

	p, err := svc.SetReputationFactors(admin, owner, ReputationFactors{
		WalletAgeMonths:          6,
		TransactionCount:         150,
		HasNFT:                   true,
		VerifiedCredentialsCount: 5,
		HasIncomeVerification:    true,
		ActivityRegularityScore:  100,
	})
	if err != nil {
		t.Fatalf("SetReputationFactors: %v", err)
	}
	if p.ActivityRegularityScore != 40 {
		t.Fatalf("activity regularity=%d, want clamped 40", p.ActivityRegularityScore)
	}
	if p.TigerScore != 580 || p.LevelUpTier != 3 {
		t.Fatalf("score/tier=%d/%d, want 580/3", p.TigerScore, p.LevelUpTier)
	}
	if p.LevelUpTier != TierOf(p.TigerScore) {
		t.Fatalf("stored tier stale")
	}
	if len(notify.factors) != 1 {
		t.Fatalf("expected one factors event, got %d", len(notify.factors))
	}
	if e := notify.factors[0]; e.NewTigerScore != 580 || e.NewLevelUpTier != 3 {
		t.Fatalf("event carries wrong values: %+v", e)
	}

	// A second call overwrites all six fields, not merges.
	p, err = svc.SetReputationFactors(admin, owner, ReputationFactors{})
	if err != nil {
		t.Fatalf("second SetReputationFactors: %v", err)
	}
	if p.HasNFT || p.ActivityRegularityScore != 0 || p.TigerScore != 300 {
		t.Fatalf("factors not overwritten: %+v", p)
	}
}

func TestSetScoreOverride(t *testing.T) {
	svc, _, notify, admin := newTestService(t)
	owner := testKey(6)
	if _, err := svc.CreateProfile(owner); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}

	cases := []struct {
		score     uint16
		tier      uint8
		wantScore uint16
	}{
		{100, 1, 100},
		{660, 3, 660},
		{661, 3, 660},
		{9999, 5, 660},
		{65535, 0, 660},
	}
	for _, c := range cases {
		p, err := svc.SetScoreOverride(admin, owner, c.score, c.tier)
		if err != nil {
			t.Fatalf("SetScoreOverride(%d,%d): %v", c.score, c.tier, err)
		}
		if p.TigerScore != c.wantScore {
			t.Fatalf("override %d stored score %d, want %d", c.score, p.TigerScore, c.wantScore)
		}
		// Tier is stored verbatim, never re-derived.
		if p.LevelUpTier != c.tier {
			t.Fatalf("override tier %d stored as %d", c.tier, p.LevelUpTier)
		}
	}
	if len(notify.overrides) != len(cases) {
		t.Fatalf("expected %d override events, got %d", len(cases), len(notify.overrides))
	}
	if last := notify.overrides[len(notify.overrides)-1]; last.NewScore != 660 || last.NewTier != 0 {
		t.Fatalf("override event carries wrong values: %+v", last)
	}
}

func TestUpdateMissingProfile(t *testing.T) {
	svc, _, _, admin := newTestService(t)
	missing := testKey(7)

	if _, err := svc.SetHumanVerified(admin, missing, true); !isNotFound(err) {
		t.Fatalf("SetHumanVerified on missing profile: %v", err)
	}
	if _, err := svc.SetReputationFactors(admin, missing, ReputationFactors{}); !isNotFound(err) {
		t.Fatalf("SetReputationFactors on missing profile: %v", err)
	}
	if _, err := svc.SetScoreOverride(admin, missing, 1, 0); !isNotFound(err) {
		t.Fatalf("SetScoreOverride on missing profile: %v", err)
	}
	if _, err := svc.GetProfile(missing); !isNotFound(err) {
		t.Fatalf("GetProfile on missing profile: %v", err)
	}
}

func TestMultiAdminSet(t *testing.T) {
	store := newStubProfileStore()
	adminA := testKey(0xA1)
	adminB := testKey(0xA2)
	svc := NewProfileService(store, nil, []identity.Key{adminA, adminB})
	owner := testKey(8)
	if _, err := svc.CreateProfile(owner); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}

	if _, err := svc.SetHumanVerified(adminB, owner, true); err != nil {
		t.Fatalf("second admin rejected: %v", err)
	}
	// The zero key never authorizes, even if configured by mistake.
	svc = NewProfileService(store, nil, []identity.Key{{}})
	if _, err := svc.SetHumanVerified(identity.Key{}, owner, true); !isUnauthorized(err) {
		t.Fatalf("zero key accepted as admin: %v", err)
	}
}

func isUnauthorized(err error) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == ErrorUnauthorized
}

func isNotFound(err error) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == ErrorNotFound
}
