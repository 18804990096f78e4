package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/tigertrust/tigertrust/internal/api"
	"github.com/tigertrust/tigertrust/internal/identity"
	"github.com/tigertrust/tigertrust/internal/services"
)

// SQLiteStore persists profiles and the audit log. SQLite serializes writes
// per connection, which gives each operation the exclusive record access
// the service layer assumes.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(sqlDB *sql.DB) (*SQLiteStore, error) {
	if sqlDB == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := sqlDB.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

// NewStore opens a SQLite-backed api.Store.
func NewStore(sqlDB *sql.DB) (api.Store, error) {
	return NewSQLiteStore(sqlDB)
}

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		log.Printf("sqlite store: %s: %v", prefix, err)
	}
}

const profileColumns = `owner, profile_address, tiger_score, level_up_tier,
	is_human_verified, wallet_age_months, transaction_count, has_nft,
	verified_credentials_count, has_income_verification,
	activity_regularity_score, total_successful_repayments,
	total_defaulted_loans, on_chain_debt_balance, last_repayment_timestamp`

func (s *SQLiteStore) AddProfile(p *services.Profile) bool {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(`INSERT INTO profiles (`+profileColumns+`, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Owner.String(), p.ProfileAddress.String(), p.TigerScore, p.LevelUpTier,
		boolToInt64(p.IsHumanVerified), p.WalletAgeMonths, p.TransactionCount, boolToInt64(p.HasNFT),
		p.VerifiedCredentialsCount, boolToInt64(p.HasIncomeVerification),
		p.ActivityRegularityScore, p.TotalSuccessfulRepayments,
		p.TotalDefaultedLoans, int64(p.OnChainDebtBalance), p.LastRepaymentTimestamp,
		now, now)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return false
		}
		s.logErr("add profile", err)
		return false
	}
	return true
}

func (s *SQLiteStore) UpdateProfile(p *services.Profile) bool {
	res, err := s.db.Exec(`UPDATE profiles SET
		profile_address = ?, tiger_score = ?, level_up_tier = ?,
		is_human_verified = ?, wallet_age_months = ?, transaction_count = ?, has_nft = ?,
		verified_credentials_count = ?, has_income_verification = ?,
		activity_regularity_score = ?, total_successful_repayments = ?,
		total_defaulted_loans = ?, on_chain_debt_balance = ?, last_repayment_timestamp = ?,
		updated_at = ?
		WHERE owner = ?`,
		p.ProfileAddress.String(), p.TigerScore, p.LevelUpTier,
		boolToInt64(p.IsHumanVerified), p.WalletAgeMonths, p.TransactionCount, boolToInt64(p.HasNFT),
		p.VerifiedCredentialsCount, boolToInt64(p.HasIncomeVerification),
		p.ActivityRegularityScore, p.TotalSuccessfulRepayments,
		p.TotalDefaultedLoans, int64(p.OnChainDebtBalance), p.LastRepaymentTimestamp,
		time.Now().UTC().Format(time.RFC3339Nano), p.Owner.String())
	if err != nil {
		s.logErr("update profile", err)
		return false
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.logErr("update profile rows", err)
		return false
	}
	return n > 0
}

func (s *SQLiteStore) GetProfile(owner identity.Key) *services.Profile {
	row := s.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE owner = ?`, owner.String())
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		s.logErr("get profile", err)
		return nil
	}
	return p
}

func (s *SQLiteStore) ListProfiles() []*services.Profile {
	rows, err := s.db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY owner`)
	if err != nil {
		s.logErr("list profiles", err)
		return nil
	}
	defer rows.Close()
	var out []*services.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			s.logErr("scan profile", err)
			continue
		}
		out = append(out, p)
	}
	s.logErr("list profiles rows", rows.Err())
	return out
}

func (s *SQLiteStore) AddAudit(e services.AuditEntry) {
	_, err := s.db.Exec(`INSERT INTO audit_log (id, at, actor, action, target, note)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.UTC().Format(time.RFC3339Nano), e.Actor, e.Action, e.Target, e.Note)
	s.logErr("add audit", err)
}

func (s *SQLiteStore) ListAudit() []services.AuditEntry {
	rows, err := s.db.Query(`SELECT id, at, actor, action, target, note FROM audit_log ORDER BY at`)
	if err != nil {
		s.logErr("list audit", err)
		return nil
	}
	defer rows.Close()
	var out []services.AuditEntry
	for rows.Next() {
		var e services.AuditEntry
		var at string
		if err := rows.Scan(&e.ID, &at, &e.Actor, &e.Action, &e.Target, &e.Note); err != nil {
			s.logErr("scan audit", err)
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, at); err == nil {
			e.Time = t
		}
		out = append(out, e)
	}
	s.logErr("list audit rows", rows.Err())
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*services.Profile, error) {
	var (
		p          services.Profile
		ownerHex   string
		addressHex string
		humanInt   int64
		nftInt     int64
		incomeInt  int64
		debtInt    int64
	)
	err := row.Scan(&ownerHex, &addressHex, &p.TigerScore, &p.LevelUpTier,
		&humanInt, &p.WalletAgeMonths, &p.TransactionCount, &nftInt,
		&p.VerifiedCredentialsCount, &incomeInt,
		&p.ActivityRegularityScore, &p.TotalSuccessfulRepayments,
		&p.TotalDefaultedLoans, &debtInt, &p.LastRepaymentTimestamp)
	if err != nil {
		return nil, err
	}
	if p.Owner, err = identity.ParseKey(ownerHex); err != nil {
		return nil, fmt.Errorf("owner key: %w", err)
	}
	if p.ProfileAddress, err = identity.ParseKey(addressHex); err != nil {
		return nil, fmt.Errorf("profile address: %w", err)
	}
	p.IsHumanVerified = humanInt != 0
	p.HasNFT = nftInt != 0
	p.HasIncomeVerification = incomeInt != 0
	p.OnChainDebtBalance = uint64(debtInt)
	return &p, nil
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

var _ api.Store = (*SQLiteStore)(nil)
