package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"weusd/core"
	"weusd/native/crosschain"
)

// ErrPathRequired is returned when the backing store path is missing.
var ErrPathRequired = errors.New("reserved storage path must be configured")

const schema = `
CREATE TABLE IF NOT EXISTS archived_requests (
	request_id      TEXT PRIMARY KEY,
	local_user      TEXT NOT NULL,
	outer_user      TEXT NOT NULL,
	amount          INTEGER NOT NULL,
	is_burn         INTEGER NOT NULL,
	target_chain_id INTEGER NOT NULL,
	side            TEXT NOT NULL,
	archived_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_archived_local_user ON archived_requests(local_user);
`

// Storage retains request records after they leave the registry's active
// lists, giving operators an export surface for settled transfers.
type Storage struct {
	db    *sql.DB
	clock func() time.Time
}

// Open initialises the archive store at the supplied sqlite DSN.
func Open(path string) (*Storage, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, ErrPathRequired
	}
	db, err := sql.Open("sqlite", trimmed)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Storage{db: db, clock: time.Now}, nil
}

// SetClock overrides the time source for deterministic testing.
func (s *Storage) SetClock(clock func() time.Time) {
	if s == nil || clock == nil {
		return
	}
	s.clock = clock
}

// Close releases database resources.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ArchivedRequest is one retained row.
type ArchivedRequest struct {
	RequestID     string
	LocalUser     string
	OuterUser     string
	Amount        uint64
	IsBurn        bool
	TargetChainID uint64
	Side          string
	ArchivedAt    int64
}

// ArchiveRequest satisfies the engine's archival sink: the record is written
// before the registry deletion takes effect, so a failed insert aborts the
// archival.
func (s *Storage) ArchiveRequest(record crosschain.RequestRecord, source bool) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("archive store not initialised")
	}
	side := "target"
	if source {
		side = "source"
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO archived_requests
		 (request_id, local_user, outer_user, amount, is_burn, target_chain_id, side, archived_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID.Hex(),
		core.FormatAddress(record.LocalUser),
		record.OuterUser,
		int64(record.Amount),
		record.IsBurn,
		int64(record.TargetChainID),
		side,
		s.clock().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert archived request: %w", err)
	}
	return nil
}

// Get resolves one archived row by request id.
func (s *Storage) Get(requestID string) (ArchivedRequest, bool, error) {
	row := s.db.QueryRow(
		`SELECT request_id, local_user, outer_user, amount, is_burn, target_chain_id, side, archived_at
		 FROM archived_requests WHERE request_id = ?`, requestID)
	var rec ArchivedRequest
	var amount, chain int64
	err := row.Scan(&rec.RequestID, &rec.LocalUser, &rec.OuterUser, &amount, &rec.IsBurn, &chain, &rec.Side, &rec.ArchivedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ArchivedRequest{}, false, nil
	}
	if err != nil {
		return ArchivedRequest{}, false, err
	}
	rec.Amount = uint64(amount)
	rec.TargetChainID = uint64(chain)
	return rec, true, nil
}

// List pages archived rows newest first.
func (s *Storage) List(limit, offset int) ([]ArchivedRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT request_id, local_user, outer_user, amount, is_burn, target_chain_id, side, archived_at
		 FROM archived_requests ORDER BY archived_at DESC, request_id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ArchivedRequest, 0, limit)
	for rows.Next() {
		var rec ArchivedRequest
		var amount, chain int64
		if err := rows.Scan(&rec.RequestID, &rec.LocalUser, &rec.OuterUser, &amount, &rec.IsBurn, &chain, &rec.Side, &rec.ArchivedAt); err != nil {
			return nil, err
		}
		rec.Amount = uint64(amount)
		rec.TargetChainID = uint64(chain)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count reports the number of retained rows.
func (s *Storage) Count() (int64, error) {
	var count int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM archived_requests`).Scan(&count)
	return count, err
}
