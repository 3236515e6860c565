package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"staked-report-gateway/internal/core/domain"
	"staked-report-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return fmt.Errorf("username already exists")
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryUserRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.Balance = balance
	u.UpdatedAt = time.Now()
	return nil
}

// setRole promotes or demotes a user directly, bypassing the service layer.
func (r *inMemoryUserRepo) setRole(username string, role domain.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			u.Role = role
			return
		}
	}
}

// --- In-Memory Stake Repo ---

type inMemoryStakeRepo struct {
	mu     sync.RWMutex
	stakes map[uuid.UUID]*domain.Stake
}

func newInMemoryStakeRepo() *inMemoryStakeRepo {
	return &inMemoryStakeRepo{stakes: make(map[uuid.UUID]*domain.Stake)}
}

func (r *inMemoryStakeRepo) Create(ctx context.Context, tx pgx.Tx, s *domain.Stake) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.stakes[s.ID] = &cp
	return nil
}

func (r *inMemoryStakeRepo) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*domain.Stake, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.stakes {
		if s.UserID == userID && s.Status == domain.StakeStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryStakeRepo) GetActiveByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Stake, error) {
	return r.GetActiveByUserID(ctx, userID)
}

func (r *inMemoryStakeRepo) Release(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stakes[id]
	if !ok || s.Status != domain.StakeStatusActive {
		return fmt.Errorf("active stake not found")
	}
	now := time.Now()
	s.Status = domain.StakeStatusReleased
	s.ReleasedAt = &now
	return nil
}

// --- In-Memory Report Repo ---

type inMemoryReportRepo struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*domain.Report
}

func newInMemoryReportRepo() *inMemoryReportRepo {
	return &inMemoryReportRepo{reports: make(map[uuid.UUID]*domain.Report)}
}

func (r *inMemoryReportRepo) Create(ctx context.Context, report *domain.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *report
	r.reports[report.ID] = &cp
	return nil
}

func (r *inMemoryReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rep, ok := r.reports[id]
	if !ok {
		return nil, nil
	}
	cp := *rep
	return &cp, nil
}

func (r *inMemoryReportRepo) List(ctx context.Context, params ports.ReportListParams) ([]domain.Report, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Report
	for _, rep := range r.reports {
		if params.UserID != nil && rep.UserID != *params.UserID {
			continue
		}
		if params.Status != nil && rep.Status != *params.Status {
			continue
		}
		result = append(result, *rep)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	total := int64(len(result))

	// Simple pagination
	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.Report{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *inMemoryReportRepo) UpdateReview(ctx context.Context, id uuid.UUID, status domain.ReportStatus, reviewedBy uuid.UUID, note *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.reports[id]
	if !ok || rep.Status != domain.ReportStatusSubmitted {
		return fmt.Errorf("reviewable report not found")
	}
	rep.Status = status
	rep.ReviewedBy = &reviewedBy
	rep.ReviewNote = note
	rep.UpdatedAt = time.Now()
	return nil
}

func (r *inMemoryReportRepo) GetStats(ctx context.Context, userID *uuid.UUID) (*ports.ReportStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &ports.ReportStats{}
	for _, rep := range r.reports {
		if userID != nil && rep.UserID != *userID {
			continue
		}
		stats.Total++
		switch rep.Status {
		case domain.ReportStatusSubmitted:
			stats.Submitted++
		case domain.ReportStatusVerified:
			stats.Verified++
		case domain.ReportStatusRejected:
			stats.Rejected++
		}
	}
	return stats, nil
}

// --- In-Memory Activity Repo ---

type inMemoryActivityRepo struct {
	mu      sync.RWMutex
	entries []*domain.ActivityLog
}

func newInMemoryActivityRepo() *inMemoryActivityRepo {
	return &inMemoryActivityRepo{}
}

func (r *inMemoryActivityRepo) Create(ctx context.Context, entry *domain.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
