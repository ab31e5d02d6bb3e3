package gamification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/learnloop/backend/internal/database"
	"github.com/learnloop/backend/internal/models"
)

// LedgerEntry is one session's XP delta.
type LedgerEntry struct {
	SessionID  string             `json:"session_id"`
	ChildID    int64              `json:"child_id"`
	Subject    string             `json:"subject"`
	GradeLevel int                `json:"grade_level"`
	XP         int                `json:"xp"`
	Breakdown  models.XPBreakdown `json:"breakdown"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Ledger records XP deltas keyed by session id. Record reports whether the
// entry was new, so retried session ends apply the delta only once.
type Ledger interface {
	Record(ctx context.Context, entry LedgerEntry) (bool, error)
	TotalXP(ctx context.Context, childID int64) (int, error)
}

// ── SQL ledger ──────────────────────────────────────────

type SQLLedger struct {
	db *database.DB
}

func NewSQLLedger(db *database.DB) *SQLLedger {
	return &SQLLedger{db: db}
}

func (l *SQLLedger) Record(ctx context.Context, e LedgerEntry) (bool, error) {
	var breakdown *string
	if b, err := json.Marshal(e.Breakdown); err == nil {
		s := string(b)
		breakdown = &s
	}

	res, err := l.db.ExecContext(ctx,
		`INSERT INTO xp_ledger (session_id, child_id, subject, grade_level, xp_amount, breakdown)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (session_id) DO NOTHING`,
		e.SessionID, e.ChildID, e.Subject, e.GradeLevel, e.XP, breakdown,
	)
	if err != nil {
		return false, fmt.Errorf("record xp: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record xp rows: %w", err)
	}
	return n > 0, nil
}

func (l *SQLLedger) TotalXP(ctx context.Context, childID int64) (int, error) {
	var total int
	err := l.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(xp_amount), 0) FROM xp_ledger WHERE child_id = ?`,
		childID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total xp: %w", err)
	}
	return total, nil
}

// ── In-memory ledger ────────────────────────────────────

type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]LedgerEntry
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]LedgerEntry)}
}

func (l *MemoryLedger) Record(_ context.Context, e LedgerEntry) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[e.SessionID]; ok {
		return false, nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	l.entries[e.SessionID] = e
	return true, nil
}

func (l *MemoryLedger) TotalXP(_ context.Context, childID int64) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, e := range l.entries {
		if e.ChildID == childID {
			total += e.XP
		}
	}
	return total, nil
}
