package services

import "math"

const (
	scoreBase = 300

	// MaxActivityRegularity caps the activity regularity signal at write
	// time. Larger inputs are stored as 40, never rejected.
	MaxActivityRegularity = 40

	// ScoreOverrideCap bounds scores set through SetScoreOverride. The
	// computed formula is deliberately not held to this cap; see
	// ComputeScore.
	ScoreOverrideCap = 660
)

// ComputeScore derives the TigerScore from the profile's current signals.
// Every addition saturates at 65535 instead of wrapping, so the result is
// total for any input combination. The formula has no cap below that
// ceiling — only the override path clamps at ScoreOverrideCap, an asymmetry
// kept intentionally.
func ComputeScore(p *Profile) uint16 {
	score := satAdd(0, scoreBase)
	score = satAdd(score, uint64(p.TotalSuccessfulRepayments)*60)
	if p.IsHumanVerified {
		score = satAdd(score, 80)
	}
	if p.WalletAgeMonths >= 6 {
		score = satAdd(score, 40)
	}
	if p.TransactionCount >= 100 {
		score = satAdd(score, 40)
	}
	if p.HasNFT {
		score = satAdd(score, 20)
	}
	credentials := uint64(p.VerifiedCredentialsCount) * 10
	if credentials > 30 {
		credentials = 30
	}
	score = satAdd(score, credentials)
	if p.HasIncomeVerification {
		score = satAdd(score, 110)
	}
	score = satAdd(score, uint64(p.ActivityRegularityScore))
	return score
}

// TierOf maps a score onto the 0-5 tier ladder. Thresholds are inclusive at
// the lower edge of each band.
func TierOf(score uint16) uint8 {
	switch {
	case score >= 900:
		return 5
	case score >= 700:
		return 4
	case score >= 500:
		return 3
	case score >= 200:
		return 2
	case score >= 50:
		return 1
	default:
		return 0
	}
}

// ClampActivityRegularity applies the write-time cap on the regularity
// signal.
func ClampActivityRegularity(v uint8) uint8 {
	if v > MaxActivityRegularity {
		return MaxActivityRegularity
	}
	return v
}

func satAdd(a uint16, b uint64) uint16 {
	sum := uint64(a) + b
	if sum > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(sum)
}
