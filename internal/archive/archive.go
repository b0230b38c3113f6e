package archive

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/escrow-express/deal-bot/internal/models"
)

// Store keeps a durable record of deals that reached a terminal status
// (released, refunded, expired). The active registry is volatile; this
// is the archival extension behind it.
type Store struct {
	conn *sql.DB
}

func Open(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate archive: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS deals (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		amount TEXT NOT NULL,
		time_frame TEXT,
		bank TEXT,
		seller TEXT NOT NULL,
		buyer TEXT NOT NULL,
		status TEXT NOT NULL,
		claimed_by INTEGER,
		created_at DATETIME NOT NULL,
		closed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deals_status ON deals(status);
	CREATE INDEX IF NOT EXISTS idx_deals_closed_at ON deals(closed_at);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Record stores a terminal deal. Re-recording the same deal id
// overwrites the previous row.
func (s *Store) Record(d *models.Deal, closedAt time.Time) error {
	_, err := s.conn.Exec(
		`INSERT OR REPLACE INTO deals
		 (id, title, amount, time_frame, bank, seller, buyer, status, claimed_by, created_at, closed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Title, d.Amount, d.TimeFrame, d.Bank, d.Seller, d.Buyer, string(d.Status), d.ClaimedBy, d.CreatedAt, closedAt,
	)
	return err
}

// Get retrieves an archived deal by id.
func (s *Store) Get(id string) (*models.Deal, time.Time, error) {
	var (
		d        models.Deal
		status   string
		closedAt time.Time
	)
	err := s.conn.QueryRow(
		`SELECT id, title, amount, time_frame, bank, seller, buyer, status, claimed_by, created_at, closed_at
		 FROM deals WHERE id = ?`, id,
	).Scan(&d.ID, &d.Title, &d.Amount, &d.TimeFrame, &d.Bank, &d.Seller, &d.Buyer, &status, &d.ClaimedBy, &d.CreatedAt, &closedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, fmt.Errorf("%s: %w", id, models.ErrDealNotFound)
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	d.Status = models.DealStatus(status)
	return &d, closedAt, nil
}

// OutcomeCounts returns how many archived deals ended in each status.
func (s *Store) OutcomeCounts() (map[models.DealStatus]int64, error) {
	rows, err := s.conn.Query(`SELECT status, COUNT(*) FROM deals GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.DealStatus]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[models.DealStatus(status)] = n
	}

	return counts, rows.Err()
}

// Purge deletes archived deals closed before the retention window.
func (s *Store) Purge(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result, err := s.conn.Exec(`DELETE FROM deals WHERE closed_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.conn.Close()
}
