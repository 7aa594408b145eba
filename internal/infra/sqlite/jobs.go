package sqlite

import (
	"time"

	"github.com/mthec/crafter/internal/domain"
)

// ─── Job Record Operations ──────────────────────────────────────────────────

// UpsertJob inserts or replaces a job record by ID.
func (db *DB) UpsertJob(j domain.JobRecord) error {
	mail := 0
	if j.MailOnCompletion {
		mail = 1
	}
	_, err := db.db.Exec(`
		INSERT INTO job_records (id, requester_id, item_id, target_quality, mail_on_completion, price_charged, state, kind, worker_cut, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state      = excluded.state,
			worker_cut = excluded.worker_cut
	`, j.ID, j.RequesterID, string(j.ItemID), j.TargetQuality, mail,
		int64(j.PriceCharged), int(j.State), int(j.Kind), int64(j.WorkerCut),
		j.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

// ListJobs returns every stored record in insertion order.
func (db *DB) ListJobs() ([]domain.JobRecord, error) {
	rows, err := db.db.Query(`
		SELECT id, requester_id, item_id, target_quality, mail_on_completion, price_charged, state, kind, worker_cut, created_at
		FROM job_records ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.JobRecord
	for rows.Next() {
		var (
			j         domain.JobRecord
			itemID    string
			mail      int
			createdAt string
		)
		err := rows.Scan(&j.ID, &j.RequesterID, &itemID, &j.TargetQuality, &mail,
			&j.PriceCharged, &j.State, &j.Kind, &j.WorkerCut, &createdAt)
		if err != nil {
			return nil, err
		}
		j.ItemID = domain.ItemID(itemID)
		j.MailOnCompletion = mail == 1
		if ts, perr := time.Parse(time.RFC3339, createdAt); perr == nil {
			j.CreatedAt = ts
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// DeleteJob removes a record by ID. Deleting a missing record is a no-op.
func (db *DB) DeleteJob(id string) error {
	_, err := db.db.Exec(`DELETE FROM job_records WHERE id = ?`, id)
	return err
}
