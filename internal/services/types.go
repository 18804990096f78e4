package services

import (
	"time"

	"github.com/tigertrust/tigertrust/internal/identity"
)

// Profile is the per-owner reputation record. TigerScore and LevelUpTier are
// derived values: every factor-mutating operation recomputes them before the
// record is stored, so readers never observe a stale tier.
type Profile struct {
	Owner                     identity.Key `json:"owner"`
	ProfileAddress            identity.Key `json:"profile_address"`
	TigerScore                uint16       `json:"tiger_score"`
	LevelUpTier               uint8        `json:"level_up_tier"`
	IsHumanVerified           bool         `json:"is_human_verified"`
	WalletAgeMonths           uint8        `json:"wallet_age_months"`
	TransactionCount          uint32       `json:"transaction_count"`
	HasNFT                    bool         `json:"has_nft"`
	VerifiedCredentialsCount  uint8        `json:"verified_credentials_count"`
	HasIncomeVerification     bool         `json:"has_income_verification"`
	ActivityRegularityScore   uint8        `json:"activity_regularity_score"`
	TotalSuccessfulRepayments uint32       `json:"total_successful_repayments"`
	TotalDefaultedLoans       uint32       `json:"total_defaulted_loans"`
	OnChainDebtBalance        uint64       `json:"on_chain_debt_balance"`
	LastRepaymentTimestamp    int64        `json:"last_repayment_timestamp"`
}

// ReputationFactors is the full set of admin-attested signals overwritten by
// SetReputationFactors. Loan history fields are not included; those are
// mutated by the lending flow, not by this service.
type ReputationFactors struct {
	WalletAgeMonths          uint8  `json:"wallet_age_months"`
	TransactionCount         uint32 `json:"transaction_count"`
	HasNFT                   bool   `json:"has_nft"`
	VerifiedCredentialsCount uint8  `json:"verified_credentials_count"`
	HasIncomeVerification    bool   `json:"has_income_verification"`
	ActivityRegularityScore  uint8  `json:"activity_regularity_score"`
}

type AuditEntry struct {
	ID     string
	Time   time.Time
	Actor  string
	Action string
	Target string
	Note   string
}
