package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/learnloop/backend/internal/database"
	"github.com/learnloop/backend/internal/models"
)

var (
	ErrUsernameTaken   = errors.New("username already taken")
	ErrLearnerNotFound = errors.New("learner not found")
)

// Store persists learner accounts. Password holds the bcrypt hash.
type Store interface {
	Create(ctx context.Context, l *models.Learner) error
	GetByUsername(ctx context.Context, username string) (*models.Learner, error)
	GetByID(ctx context.Context, id int64) (*models.Learner, error)
}

// ── SQL store ───────────────────────────────────────────

type SQLStore struct {
	db *database.DB
}

func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, l *models.Learner) error {
	l.CreatedAt = time.Now().UTC()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO learners (username, name, grade_level, password, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id`,
		l.Username, l.Name, l.GradeLevel, l.Password, l.CreatedAt,
	).Scan(&l.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("insert learner: %w", err)
	}
	return nil
}

func (s *SQLStore) GetByUsername(ctx context.Context, username string) (*models.Learner, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT id, username, name, grade_level, password, created_at FROM learners WHERE username = ?`,
		username,
	))
}

func (s *SQLStore) GetByID(ctx context.Context, id int64) (*models.Learner, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT id, username, name, grade_level, password, created_at FROM learners WHERE id = ?`,
		id,
	))
}

func (s *SQLStore) scanOne(row *sql.Row) (*models.Learner, error) {
	var l models.Learner
	err := row.Scan(&l.ID, &l.Username, &l.Name, &l.GradeLevel, &l.Password, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get learner: %w", err)
	}
	return &l, nil
}

// isUniqueViolation matches the duplicate-key errors of both lib/pq and
// go-sqlite3.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

// ── Memory store ────────────────────────────────────────

type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.Learner
	byName map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[int64]models.Learner), byName: make(map[string]int64)}
}

func (s *MemoryStore) Create(_ context.Context, l *models.Learner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[l.Username]; ok {
		return ErrUsernameTaken
	}
	s.nextID++
	l.ID = s.nextID
	l.CreatedAt = time.Now().UTC()
	s.byID[l.ID] = *l
	s.byName[l.Username] = l.ID
	return nil
}

func (s *MemoryStore) GetByUsername(_ context.Context, username string) (*models.Learner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[username]
	if !ok {
		return nil, ErrLearnerNotFound
	}
	l := s.byID[id]
	return &l, nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*models.Learner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.byID[id]
	if !ok {
		return nil, ErrLearnerNotFound
	}
	return &l, nil
}
