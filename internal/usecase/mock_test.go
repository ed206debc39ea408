//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-subscription-payments/internal/domain"
	"telegram-subscription-payments/internal/domain/model"
	"telegram-subscription-payments/internal/domain/ports/repository"
	"telegram-subscription-payments/internal/gateway/click"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// =============================
// Transaction ledger
// =============================

// MockTransactionRepo is an in-memory ledger with the same conditional
// transition semantics as the Postgres implementation. Any Func field
// overrides the default behavior for that method.
type MockTransactionRepo struct {
	mu    sync.Mutex
	items map[string]*model.Transaction

	CreateFunc            func(ctx context.Context, qx any, t *model.Transaction) error
	FindByExternalIDFunc  func(ctx context.Context, qx any, provider model.Provider, externalID string) (*model.Transaction, error)
	MarkPaidIfPendingFunc func(ctx context.Context, qx any, id string, state int, performTime time.Time) (bool, error)
	CancelIfStatusFunc    func(ctx context.Context, qx any, id string, expect model.TransactionStatus, state int, reason int, cancelTime time.Time) (bool, error)
}

var _ repository.TransactionRepository = (*MockTransactionRepo)(nil)

func NewMockTransactionRepo() *MockTransactionRepo {
	return &MockTransactionRepo{items: map[string]*model.Transaction{}}
}

func (m *MockTransactionRepo) Create(ctx context.Context, qx any, t *model.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, qx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.items {
		if e.Provider == t.Provider && e.ExternalID == t.ExternalID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *t
	m.items[t.ID] = &cp
	return nil
}

func (m *MockTransactionRepo) FindByExternalID(ctx context.Context, qx any, provider model.Provider, externalID string) (*model.Transaction, error) {
	if m.FindByExternalIDFunc != nil {
		return m.FindByExternalIDFunc(ctx, qx, provider, externalID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.items {
		if e.Provider == provider && e.ExternalID == externalID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockTransactionRepo) FindByPrepareID(ctx context.Context, qx any, provider model.Provider, prepareID int64, userID, planID string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.items {
		if e.Provider == provider && e.PrepareID != nil && *e.PrepareID == prepareID && e.UserID == userID && e.PlanID == planID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockTransactionRepo) FindByUserPlanStatus(ctx context.Context, qx any, userID, planID string, status model.TransactionStatus) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.items {
		if e.UserID == userID && e.PlanID == planID && e.Status == status {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockTransactionRepo) MarkPaidIfPending(ctx context.Context, qx any, id string, state int, performTime time.Time) (bool, error) {
	if m.MarkPaidIfPendingFunc != nil {
		return m.MarkPaidIfPendingFunc(ctx, qx, id, state, performTime)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok || e.Status != model.TransactionStatusPending {
		return false, nil
	}
	e.Status = model.TransactionStatusPaid
	e.State = state
	pt := performTime
	e.PerformTime = &pt
	e.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockTransactionRepo) CancelIfStatus(ctx context.Context, qx any, id string, expect model.TransactionStatus, state int, reason int, cancelTime time.Time) (bool, error) {
	if m.CancelIfStatusFunc != nil {
		return m.CancelIfStatusFunc(ctx, qx, id, expect, state, reason, cancelTime)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok || e.Status != expect {
		return false, nil
	}
	e.Status = model.TransactionStatusCanceled
	e.State = state
	rs := reason
	e.Reason = &rs
	if e.CancelTime == nil {
		ct := cancelTime
		e.CancelTime = &ct
	}
	e.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockTransactionRepo) ListPendingOlderThan(ctx context.Context, qx any, olderThan time.Time, limit int) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for _, e := range m.items {
		if e.Status == model.TransactionStatusPending && e.CreatedAt.Before(olderThan) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockTransactionRepo) ListByProviderBetween(ctx context.Context, qx any, provider model.Provider, from, to time.Time) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for _, e := range m.items {
		if e.Provider == provider && !e.CreatedAt.Before(from) && !e.CreatedAt.After(to) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockTransactionRepo) CountPendingByPlan(ctx context.Context, qx any, planID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.items {
		if e.PlanID == planID && e.Status == model.TransactionStatusPending {
			n++
		}
	}
	return n, nil
}

// Get reaches into the ledger for assertions.
func (m *MockTransactionRepo) Get(id string) *model.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.items[id]; ok {
		cp := *e
		return &cp
	}
	return nil
}

// Put seeds the ledger directly.
func (m *MockTransactionRepo) Put(t *model.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.items[t.ID] = &cp
}

// =============================
// Grants
// =============================

type MockGrantRepo struct {
	mu     sync.Mutex
	byTxID map[string]*model.Grant

	InsertFunc func(ctx context.Context, qx any, g *model.Grant) error
}

var _ repository.GrantRepository = (*MockGrantRepo)(nil)

func NewMockGrantRepo() *MockGrantRepo {
	return &MockGrantRepo{byTxID: map[string]*model.Grant{}}
}

func (m *MockGrantRepo) Insert(ctx context.Context, qx any, g *model.Grant) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, qx, g)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byTxID[g.TransactionID]; ok {
		return domain.ErrAlreadyGranted
	}
	cp := *g
	m.byTxID[g.TransactionID] = &cp
	return nil
}

func (m *MockGrantRepo) ListByUser(ctx context.Context, qx any, userID string) ([]*model.Grant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Grant
	for _, g := range m.byTxID {
		if g.UserID == userID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

// =============================
// Plans
// =============================

type MockPlanRepo struct {
	mu    sync.Mutex
	items map[string]*model.Plan

	FindByIDFunc func(ctx context.Context, id string) (*model.Plan, error)
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{items: map[string]*model.Plan{}}
}

func (m *MockPlanRepo) Save(ctx context.Context, p *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *MockPlanRepo) FindByID(ctx context.Context, id string) (*model.Plan, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.items[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockPlanRepo) ListAll(ctx context.Context) ([]*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Plan
	for _, p := range m.items {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockPlanRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// =============================
// Users
// =============================

type MockUserRepo struct {
	mu    sync.Mutex
	items map[string]*model.User

	SaveFunc     func(ctx context.Context, qx any, u *model.User) error
	FindByIDFunc func(ctx context.Context, qx any, id string) (*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{items: map[string]*model.User{}}
}

func (m *MockUserRepo) Save(ctx context.Context, qx any, u *model.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, qx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.items[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, qx any, id string) (*model.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, qx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.items[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) FindByTelegramID(ctx context.Context, qx any, tgID int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.TelegramID == tgID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) ListExpiringBetween(ctx context.Context, qx any, from, to time.Time) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.items {
		if u.IsActive && u.SubscriptionEnd != nil && !u.SubscriptionEnd.Before(from) && !u.SubscriptionEnd.After(to) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockUserRepo) ListLapsed(ctx context.Context, qx any, asOf time.Time) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.items {
		if u.IsActive && !u.IsKickedOut && u.SubscriptionEnd != nil && u.SubscriptionEnd.Before(asOf) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockUserRepo) MarkKickedOut(ctx context.Context, qx any, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok || !u.IsActive || u.IsKickedOut {
		return false, nil
	}
	u.IsActive = false
	u.IsKickedOut = true
	return true, nil
}

// Get reaches into the store for assertions.
func (m *MockUserRepo) Get(id string) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.items[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

// =============================
// Transaction manager
// =============================

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// =============================
// Notifications and channel gate
// =============================

type MockNotifier struct {
	mu        sync.Mutex
	Succeeded []int64
	Expiring  []int64
	Expired   []int64

	PaymentSucceededFunc func(ctx context.Context, tgID int64, planName, subscriptionEnd string) error
}

func (m *MockNotifier) PaymentSucceeded(ctx context.Context, tgID int64, planName, subscriptionEnd string) error {
	if m.PaymentSucceededFunc != nil {
		return m.PaymentSucceededFunc(ctx, tgID, planName, subscriptionEnd)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Succeeded = append(m.Succeeded, tgID)
	return nil
}

func (m *MockNotifier) SubscriptionExpiring(ctx context.Context, tgID int64, daysLeft int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Expiring = append(m.Expiring, tgID)
	return nil
}

func (m *MockNotifier) SubscriptionExpired(ctx context.Context, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Expired = append(m.Expired, tgID)
	return nil
}

type MockChannelGate struct {
	mu        sync.Mutex
	Readmits  []int64
	Removals  []int64
	RemoveErr error
}

func (m *MockChannelGate) Readmit(ctx context.Context, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Readmits = append(m.Readmits, tgID)
	return nil
}

func (m *MockChannelGate) Remove(ctx context.Context, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.Removals = append(m.Removals, tgID)
	return nil
}

// =============================
// Click signature
// =============================

type MockVerifier struct {
	VerifyFunc func(r *click.Request) bool
}

var _ click.SignatureVerifier = (*MockVerifier)(nil)

func (m *MockVerifier) Verify(r *click.Request) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(r)
	}
	return true
}

// =============================
// Redis (dedup keys)
// =============================

type MockKV struct {
	mu    sync.Mutex
	store map[string]string
}

func NewMockKV() *MockKV { return &MockKV{store: map[string]string{}} }

func (m *MockKV) Ping(ctx context.Context) error { return nil }

func (m *MockKV) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = "1"
	return nil
}

func (m *MockKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.store[key]; ok {
		return v, nil
	}
	return "", domain.ErrNotFound
}

func (m *MockKV) Incr(ctx context.Context, key string) (int64, error) { return 1, nil }

func (m *MockKV) Expire(ctx context.Context, key string, _ time.Duration) error { return nil }

func (m *MockKV) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.store, k)
	}
	return nil
}

func (m *MockKV) Close() error { return nil }
