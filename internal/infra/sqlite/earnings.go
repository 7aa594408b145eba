package sqlite

import (
	"time"

	"github.com/mthec/crafter/internal/domain"
)

// ─── Earnings Ledger Operations ─────────────────────────────────────────────

// InsertEarning appends one ledger row. Rows are never updated or deleted.
func (db *DB) InsertEarning(e domain.EarningEntry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := db.db.Exec(`
		INSERT INTO earnings_ledger (timestamp, account, amount, job_id, reason)
		VALUES (?, ?, ?, ?, ?)
	`, ts.UTC().Format(time.RFC3339), string(e.Account), int64(e.Amount), e.JobID, string(e.Reason))
	return err
}

// AccountBalance sums the ledger for one account.
func (db *DB) AccountBalance(a domain.Account) (domain.Coins, error) {
	var sum int64
	err := db.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0) FROM earnings_ledger WHERE account = ?
	`, string(a)).Scan(&sum)
	return domain.Coins(sum), err
}

// TotalsByAccount sums the ledger per account.
func (db *DB) TotalsByAccount() (map[domain.Account]domain.Coins, error) {
	rows, err := db.db.Query(`
		SELECT account, SUM(amount) FROM earnings_ledger GROUP BY account
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.Account]domain.Coins)
	for rows.Next() {
		var (
			account string
			sum     int64
		)
		if err := rows.Scan(&account, &sum); err != nil {
			return nil, err
		}
		out[domain.Account(account)] = domain.Coins(sum)
	}
	return out, rows.Err()
}

// RecentEarnings returns the newest ledger rows, most recent first.
func (db *DB) RecentEarnings(limit int) ([]domain.EarningEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.db.Query(`
		SELECT id, timestamp, account, amount, job_id, reason
		FROM earnings_ledger ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EarningEntry
	for rows.Next() {
		var (
			e       domain.EarningEntry
			ts      string
			account string
			reason  string
		)
		if err := rows.Scan(&e.ID, &ts, &account, &e.Amount, &e.JobID, &reason); err != nil {
			return nil, err
		}
		e.Account = domain.Account(account)
		e.Reason = domain.EarningReason(reason)
		if parsed, perr := time.Parse(time.RFC3339, ts); perr == nil {
			e.Timestamp = parsed
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
