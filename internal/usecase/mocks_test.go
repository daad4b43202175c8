package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/Kamigear/teens-points/internal/domain"
	"github.com/Kamigear/teens-points/internal/domain/model"
	"github.com/Kamigear/teens-points/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memTxManager serializes "transactions" with a mutex, which is how the unit
// tests model the database-side conflict resolution for racing claims.
type memTxManager struct {
	mu sync.Mutex
}

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, memTx{})
}

type memTx struct{}

// ===== members =====

type memMemberRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Member
}

func newMemMemberRepo() *memMemberRepo {
	return &memMemberRepo{store: make(map[string]*model.Member)}
}

func (m *memMemberRepo) Save(ctx context.Context, _ repository.Tx, mem *model.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.store[mem.ID]; ok {
		cur.DisplayName = mem.DisplayName
		cur.IsAdmin = mem.IsAdmin
		return nil
	}
	cp := *mem
	m.store[mem.ID] = &cp
	return nil
}

func (m *memMemberRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mem, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *mem
	return &cp, nil
}

func (m *memMemberRepo) List(ctx context.Context, _ repository.Tx, offset, limit int) ([]*model.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]*model.Member, 0, len(m.store))
	for _, mem := range m.store {
		cp := *mem
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Balance > all[j].Balance })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *memMemberRepo) Count(ctx context.Context, _ repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

func (m *memMemberRepo) ApplyClaim(ctx context.Context, _ repository.Tx, memberID string, points int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.store[memberID]
	if !ok {
		return domain.ErrNotFound
	}
	mem.Balance += points
	mem.TotalClaims++
	t := at
	mem.LastClaimAt = &t
	return nil
}

func (m *memMemberRepo) AdjustBalance(ctx context.Context, _ repository.Tx, memberID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.store[memberID]
	if !ok {
		return domain.ErrNotFound
	}
	mem.Balance += delta
	return nil
}

func (m *memMemberRepo) Merge(ctx context.Context, _ repository.Tx, id string, displayName *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if displayName != nil {
		mem.DisplayName = *displayName
	}
	return nil
}

// ===== rotating tokens =====

type memTokenRepo struct {
	mu     sync.RWMutex
	tokens []*model.RotatingToken
}

func newMemTokenRepo() *memTokenRepo { return &memTokenRepo{} }

func (m *memTokenRepo) Save(ctx context.Context, _ repository.Tx, t *model.RotatingToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tokens = append(m.tokens, &cp)
	return nil
}

func (m *memTokenRepo) FindLatestByCode(ctx context.Context, _ repository.Tx, code string) (*model.RotatingToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.RotatingToken
	for _, t := range m.tokens {
		if t.Code != code {
			continue
		}
		if latest == nil || t.ExpiresAt.After(latest.ExpiresAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memTokenRepo) FindCurrent(ctx context.Context, _ repository.Tx, now time.Time) (*model.RotatingToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.RotatingToken
	for _, t := range m.tokens {
		if !t.ExpiresAt.After(now) {
			continue
		}
		if latest == nil || t.IssuedAt.After(latest.IssuedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memTokenRepo) DeleteExpired(ctx context.Context, _ repository.Tx, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tokens[:0]
	removed := 0
	for _, t := range m.tokens {
		if t.ExpiresAt.After(now) {
			kept = append(kept, t)
		} else {
			removed++
		}
	}
	m.tokens = kept
	return removed, nil
}

// ===== event codes =====

type memEventCodeRepo struct {
	mu    sync.RWMutex
	byID  map[string]*model.EventCode
	codes map[string]string // code -> id
}

func newMemEventCodeRepo() *memEventCodeRepo {
	return &memEventCodeRepo{byID: make(map[string]*model.EventCode), codes: make(map[string]string)}
}

func (m *memEventCodeRepo) Save(ctx context.Context, _ repository.Tx, c *model.EventCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.codes[c.Code]; taken {
		return domain.ErrAlreadyExists
	}
	cp := *c
	m.byID[c.ID] = &cp
	m.codes[c.Code] = c.ID
	return nil
}

func (m *memEventCodeRepo) FindByCode(ctx context.Context, _ repository.Tx, code string) (*model.EventCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.codes[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *memEventCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.EventCode, error) {
	if tx == nil {
		return nil, domain.ErrInvalidExecContext
	}
	return m.FindByCode(ctx, tx, code)
}

func (m *memEventCodeRepo) MarkClaimed(ctx context.Context, _ repository.Tx, id, memberID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if c.Status != model.CodeStatusActive {
		return domain.ErrConflict
	}
	c.Status = model.CodeStatusClaimed
	by := memberID
	t := at
	c.ClaimedBy = &by
	c.ClaimedAt = &t
	return nil
}

func (m *memEventCodeRepo) List(ctx context.Context, _ repository.Tx) ([]*model.EventCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.EventCode, 0, len(m.byID))
	for _, c := range m.byID {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memEventCodeRepo) Delete(ctx context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.codes, c.Code)
	delete(m.byID, id)
	return nil
}

// ===== ledger =====

type memLedgerRepo struct {
	mu      sync.RWMutex
	entries []*model.LedgerEntry
	byID    map[string]*model.LedgerEntry
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{byID: make(map[string]*model.LedgerEntry)}
}

func (m *memLedgerRepo) Insert(ctx context.Context, _ repository.Tx, e *model.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.byID[e.ID]; dup {
		return domain.ErrAlreadyExists
	}
	cp := *e
	m.entries = append(m.entries, &cp)
	m.byID[e.ID] = &cp
	return nil
}

func (m *memLedgerRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memLedgerRepo) ListByMember(ctx context.Context, _ repository.Tx, memberID string, limit int) ([]*model.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.LedgerEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].MemberID == memberID {
			cp := *m.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memLedgerRepo) ExistsByMemberAndCode(ctx context.Context, _ repository.Tx, memberID, sourceCodeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.MemberID == memberID && e.SourceCodeID != nil && *e.SourceCodeID == sourceCodeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLedgerRepo) Delete(ctx context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	return nil
}

// ===== weekly claims =====

type memWeeklyClaimRepo struct {
	mu    sync.RWMutex
	store map[string]*model.WeeklyClaimRecord // member|week
}

func newMemWeeklyClaimRepo() *memWeeklyClaimRepo {
	return &memWeeklyClaimRepo{store: make(map[string]*model.WeeklyClaimRecord)}
}

func weeklyKey(memberID, weekID string) string { return memberID + "|" + weekID }

func (m *memWeeklyClaimRepo) Insert(ctx context.Context, _ repository.Tx, rec *model.WeeklyClaimRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := weeklyKey(rec.MemberID, rec.WeekID)
	if _, dup := m.store[k]; dup {
		return domain.ErrAlreadyExists
	}
	cp := *rec
	m.store[k] = &cp
	return nil
}

func (m *memWeeklyClaimRepo) Exists(ctx context.Context, _ repository.Tx, memberID, weekID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.store[weeklyKey(memberID, weekID)]
	return ok, nil
}

// ===== settings =====

type memSettingsRepo struct {
	mu     sync.RWMutex
	val    *model.AttendanceSettings
	getErr error
}

func newMemSettingsRepo() *memSettingsRepo { return &memSettingsRepo{} }

func (m *memSettingsRepo) Get(ctx context.Context, _ repository.Tx) (model.AttendanceSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return model.AttendanceSettings{}, m.getErr
	}
	if m.val == nil {
		return model.DefaultAttendanceSettings(), nil
	}
	return *m.val, nil
}

func (m *memSettingsRepo) Save(ctx context.Context, _ repository.Tx, s model.AttendanceSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := s
	m.val = &cp
	return nil
}
