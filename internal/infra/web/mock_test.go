package web

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/Kamigear/teens-points/internal/domain"
	"github.com/Kamigear/teens-points/internal/domain/model"
	"github.com/Kamigear/teens-points/internal/domain/ports/repository"
)

// In-memory repositories backing the handler tests. Same shape as the
// usecase package fixtures, trimmed to what the HTTP round-trips exercise.

type stubTxManager struct{ mu sync.Mutex }

func (m *stubTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, struct{}{})
}

type stubMemberRepo struct {
	store map[string]*model.Member
}

func newStubMemberRepo() *stubMemberRepo {
	return &stubMemberRepo{store: make(map[string]*model.Member)}
}

func (m *stubMemberRepo) Save(ctx context.Context, _ repository.Tx, mem *model.Member) error {
	if cur, ok := m.store[mem.ID]; ok {
		cur.DisplayName = mem.DisplayName
		cur.IsAdmin = mem.IsAdmin
		return nil
	}
	cp := *mem
	m.store[mem.ID] = &cp
	return nil
}

func (m *stubMemberRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Member, error) {
	mem, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *mem
	return &cp, nil
}

func (m *stubMemberRepo) List(ctx context.Context, _ repository.Tx, offset, limit int) ([]*model.Member, error) {
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

func (m *stubMemberRepo) Count(ctx context.Context, _ repository.Tx) (int, error) {
	return len(m.store), nil
}

func (m *stubMemberRepo) ApplyClaim(ctx context.Context, _ repository.Tx, memberID string, points int, at time.Time) error {
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

func (m *stubMemberRepo) AdjustBalance(ctx context.Context, _ repository.Tx, memberID string, delta int) error {
	mem, ok := m.store[memberID]
	if !ok {
		return domain.ErrNotFound
	}
	mem.Balance += delta
	return nil
}

func (m *stubMemberRepo) Merge(ctx context.Context, _ repository.Tx, id string, displayName *string) error {
	mem, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	if displayName != nil {
		mem.DisplayName = *displayName
	}
	return nil
}

type stubTokenRepo struct {
	tokens []*model.RotatingToken
}

func (m *stubTokenRepo) Save(ctx context.Context, _ repository.Tx, t *model.RotatingToken) error {
	cp := *t
	m.tokens = append(m.tokens, &cp)
	return nil
}

func (m *stubTokenRepo) FindLatestByCode(ctx context.Context, _ repository.Tx, code string) (*model.RotatingToken, error) {
	var latest *model.RotatingToken
	for _, t := range m.tokens {
		if t.Code == code && (latest == nil || t.ExpiresAt.After(latest.ExpiresAt)) {
			latest = t
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *stubTokenRepo) FindCurrent(ctx context.Context, _ repository.Tx, now time.Time) (*model.RotatingToken, error) {
	var latest *model.RotatingToken
	for _, t := range m.tokens {
		if t.ExpiresAt.After(now) && (latest == nil || t.IssuedAt.After(latest.IssuedAt)) {
			latest = t
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *stubTokenRepo) DeleteExpired(ctx context.Context, _ repository.Tx, now time.Time) (int, error) {
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

type stubEventCodeRepo struct {
	byID  map[string]*model.EventCode
	codes map[string]string
}

func newStubEventCodeRepo() *stubEventCodeRepo {
	return &stubEventCodeRepo{byID: make(map[string]*model.EventCode), codes: make(map[string]string)}
}

func (m *stubEventCodeRepo) Save(ctx context.Context, _ repository.Tx, c *model.EventCode) error {
	if _, taken := m.codes[c.Code]; taken {
		return domain.ErrAlreadyExists
	}
	cp := *c
	m.byID[c.ID] = &cp
	m.codes[c.Code] = c.ID
	return nil
}

func (m *stubEventCodeRepo) FindByCode(ctx context.Context, _ repository.Tx, code string) (*model.EventCode, error) {
	id, ok := m.codes[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *stubEventCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.EventCode, error) {
	if tx == nil {
		return nil, domain.ErrInvalidExecContext
	}
	return m.FindByCode(ctx, tx, code)
}

func (m *stubEventCodeRepo) MarkClaimed(ctx context.Context, _ repository.Tx, id, memberID string, at time.Time) error {
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

func (m *stubEventCodeRepo) List(ctx context.Context, _ repository.Tx) ([]*model.EventCode, error) {
	out := make([]*model.EventCode, 0, len(m.byID))
	for _, c := range m.byID {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *stubEventCodeRepo) Delete(ctx context.Context, _ repository.Tx, id string) error {
	c, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.codes, c.Code)
	delete(m.byID, id)
	return nil
}

type stubLedgerRepo struct {
	entries []*model.LedgerEntry
	byID    map[string]*model.LedgerEntry
}

func newStubLedgerRepo() *stubLedgerRepo {
	return &stubLedgerRepo{byID: make(map[string]*model.LedgerEntry)}
}

func (m *stubLedgerRepo) Insert(ctx context.Context, _ repository.Tx, e *model.LedgerEntry) error {
	if _, dup := m.byID[e.ID]; dup {
		return domain.ErrAlreadyExists
	}
	cp := *e
	m.entries = append(m.entries, &cp)
	m.byID[e.ID] = &cp
	return nil
}

func (m *stubLedgerRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.LedgerEntry, error) {
	e, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *stubLedgerRepo) ListByMember(ctx context.Context, _ repository.Tx, memberID string, limit int) ([]*model.LedgerEntry, error) {
	var out []*model.LedgerEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].MemberID == memberID {
			cp := *m.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *stubLedgerRepo) ExistsByMemberAndCode(ctx context.Context, _ repository.Tx, memberID, sourceCodeID string) (bool, error) {
	for _, e := range m.entries {
		if e.MemberID == memberID && e.SourceCodeID != nil && *e.SourceCodeID == sourceCodeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *stubLedgerRepo) Delete(ctx context.Context, _ repository.Tx, id string) error {
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

type stubWeeklyClaimRepo struct {
	store map[string]*model.WeeklyClaimRecord
}

func newStubWeeklyClaimRepo() *stubWeeklyClaimRepo {
	return &stubWeeklyClaimRepo{store: make(map[string]*model.WeeklyClaimRecord)}
}

func (m *stubWeeklyClaimRepo) Insert(ctx context.Context, _ repository.Tx, rec *model.WeeklyClaimRecord) error {
	k := rec.MemberID + "|" + rec.WeekID
	if _, dup := m.store[k]; dup {
		return domain.ErrAlreadyExists
	}
	cp := *rec
	m.store[k] = &cp
	return nil
}

func (m *stubWeeklyClaimRepo) Exists(ctx context.Context, _ repository.Tx, memberID, weekID string) (bool, error) {
	_, ok := m.store[memberID+"|"+weekID]
	return ok, nil
}

type stubSettingsRepo struct {
	val *model.AttendanceSettings
}

func (m *stubSettingsRepo) Get(ctx context.Context, _ repository.Tx) (model.AttendanceSettings, error) {
	if m.val == nil {
		return model.DefaultAttendanceSettings(), nil
	}
	return *m.val, nil
}

func (m *stubSettingsRepo) Save(ctx context.Context, _ repository.Tx, s model.AttendanceSettings) error {
	cp := s
	m.val = &cp
	return nil
}

type stubMinter struct {
	running bool
	starts  int
	stops   int
}

func (m *stubMinter) Start(ctx context.Context) {
	m.starts++
	m.running = true
}

func (m *stubMinter) Stop() {
	m.stops++
	m.running = false
}

func (m *stubMinter) Running() bool { return m.running }
