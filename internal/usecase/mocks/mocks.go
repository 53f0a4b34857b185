package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nhangsach/depositledger/internal/domain"
	"github.com/nhangsach/depositledger/internal/usecase"
)

// onRollback registers an undo step on mock transactions. Writes made outside a
// MockTransaction are permanent.
func onRollback(tx usecase.Transaction, undo func()) {
	if mt, ok := tx.(*MockTransaction); ok {
		mt.OnRollback(undo)
	}
}

// MockVendorRepository is an in-memory VendorRepository.
type MockVendorRepository struct {
	mu      sync.RWMutex
	vendors map[string]*domain.Vendor

	CreateFunc        func(ctx context.Context, vendor *domain.Vendor) error
	GetByIDFunc       func(ctx context.Context, id string) (*domain.Vendor, error)
	GetByIDTxFunc     func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Vendor, error)
	DeductBalanceFunc func(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (usecase.BalanceChange, bool, error)
	CreditBalanceFunc func(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, countAsDeposit bool, at time.Time) (usecase.BalanceChange, bool, error)
	ListFunc          func(ctx context.Context, limit, offset int) ([]*domain.Vendor, error)
}

func NewMockVendorRepository() *MockVendorRepository {
	return &MockVendorRepository{
		vendors: make(map[string]*domain.Vendor),
	}
}

func (m *MockVendorRepository) Create(ctx context.Context, vendor *domain.Vendor) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, vendor)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v := *vendor
	m.vendors[vendor.ID] = &v
	return nil
}

func (m *MockVendorRepository) GetByID(ctx context.Context, id string) (*domain.Vendor, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.vendors[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, domain.ErrVendorNotFound
}

func (m *MockVendorRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Vendor, error) {
	if m.GetByIDTxFunc != nil {
		return m.GetByIDTxFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockVendorRepository) DeductBalance(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (usecase.BalanceChange, bool, error) {
	if m.DeductBalanceFunc != nil {
		return m.DeductBalanceFunc(ctx, tx, id, amount, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vendors[id]
	if !ok || v.DepositBalance.LessThan(amount) {
		return usecase.BalanceChange{}, false, nil
	}
	before, updatedAt := v.DepositBalance, v.UpdatedAt
	v.DepositBalance = before.Sub(amount)
	v.UpdatedAt = at
	onRollback(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		v.DepositBalance = v.DepositBalance.Add(amount)
		v.UpdatedAt = updatedAt
	})
	return usecase.BalanceChange{Before: before, After: v.DepositBalance}, true, nil
}

func (m *MockVendorRepository) CreditBalance(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, countAsDeposit bool, at time.Time) (usecase.BalanceChange, bool, error) {
	if m.CreditBalanceFunc != nil {
		return m.CreditBalanceFunc(ctx, tx, id, amount, countAsDeposit, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vendors[id]
	if !ok {
		return usecase.BalanceChange{}, false, nil
	}
	before := v.DepositBalance
	v.DepositBalance = before.Add(amount)
	if countAsDeposit {
		v.DepositTotal = v.DepositTotal.Add(amount)
	}
	onRollback(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		v.DepositBalance = v.DepositBalance.Sub(amount)
		if countAsDeposit {
			v.DepositTotal = v.DepositTotal.Sub(amount)
		}
	})
	return usecase.BalanceChange{Before: before, After: v.DepositBalance}, true, nil
}

func (m *MockVendorRepository) List(ctx context.Context, limit, offset int) ([]*domain.Vendor, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.vendors))
	for id := range m.vendors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var vendors []*domain.Vendor
	for _, id := range page(ids, limit, offset) {
		cp := *m.vendors[id]
		vendors = append(vendors, &cp)
	}
	return vendors, nil
}

// MockVendorOrderRepository is an in-memory VendorOrderRepository.
type MockVendorOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.VendorOrder

	CreateFunc       func(ctx context.Context, order *domain.VendorOrder) error
	GetByIDFunc      func(ctx context.Context, id string) (*domain.VendorOrder, error)
	GetByIDTxFunc    func(ctx context.Context, tx usecase.Transaction, id string) (*domain.VendorOrder, error)
	UpdateStatusFunc func(ctx context.Context, tx usecase.Transaction, id string, status domain.OrderStatus, at time.Time) error
	MarkDeductedFunc func(ctx context.Context, tx usecase.Transaction, id string, at time.Time) (bool, error)
}

func NewMockVendorOrderRepository() *MockVendorOrderRepository {
	return &MockVendorOrderRepository{
		orders: make(map[string]*domain.VendorOrder),
	}
}

func (m *MockVendorOrderRepository) Create(ctx context.Context, order *domain.VendorOrder) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o := *order
	m.orders[order.ID] = &o
	return nil
}

func (m *MockVendorOrderRepository) GetByID(ctx context.Context, id string) (*domain.VendorOrder, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, domain.ErrVendorOrderNotFound
}

func (m *MockVendorOrderRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.VendorOrder, error) {
	if m.GetByIDTxFunc != nil {
		return m.GetByIDTxFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockVendorOrderRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.OrderStatus, at time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrVendorOrderNotFound
	}
	prev := *o
	o.Status = status
	o.UpdatedAt = at
	if status == domain.OrderStatusDelivered {
		o.DeliveredAt = &at
	}
	onRollback(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		*o = prev
	})
	return nil
}

func (m *MockVendorOrderRepository) MarkDeducted(ctx context.Context, tx usecase.Transaction, id string, at time.Time) (bool, error) {
	if m.MarkDeductedFunc != nil {
		return m.MarkDeductedFunc(ctx, tx, id, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.DepositDeducted {
		return false, nil
	}
	o.DepositDeducted = true
	onRollback(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		o.DepositDeducted = false
	})
	return true, nil
}

// MockDepositTransactionRepository is an in-memory append-only DepositTransactionRepository.
type MockDepositTransactionRepository struct {
	mu  sync.RWMutex
	txs []*domain.DepositTransaction

	CreateFunc                func(ctx context.Context, tx usecase.Transaction, t *domain.DepositTransaction) error
	GetDeductionByOrderTxFunc func(ctx context.Context, tx usecase.Transaction, vendorID, orderID string) (*domain.DepositTransaction, error)
	GetDeductionByOrderFunc   func(ctx context.Context, vendorID, orderID string) (*domain.DepositTransaction, error)
	ListByVendorFunc          func(ctx context.Context, vendorID string, filter domain.TransactionFilter) ([]*domain.DepositTransaction, error)
	SumByVendorFunc           func(ctx context.Context, vendorID string) (decimal.Decimal, error)
}

func NewMockDepositTransactionRepository() *MockDepositTransactionRepository {
	return &MockDepositTransactionRepository{}
}

func (m *MockDepositTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.DepositTransaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.Type == domain.TransactionTypeDeduction {
		for _, existing := range m.txs {
			if existing.Type == t.Type && existing.VendorID == t.VendorID && existing.OrderID == t.OrderID {
				return domain.ErrDuplicateDeduction
			}
		}
	}
	cp := *t
	m.txs = append(m.txs, &cp)
	onRollback(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, existing := range m.txs {
			if existing.ID == cp.ID {
				m.txs = append(m.txs[:i], m.txs[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (m *MockDepositTransactionRepository) GetDeductionByOrderTx(ctx context.Context, tx usecase.Transaction, vendorID, orderID string) (*domain.DepositTransaction, error) {
	if m.GetDeductionByOrderTxFunc != nil {
		return m.GetDeductionByOrderTxFunc(ctx, tx, vendorID, orderID)
	}
	return m.GetDeductionByOrder(ctx, vendorID, orderID)
}

func (m *MockDepositTransactionRepository) GetDeductionByOrder(ctx context.Context, vendorID, orderID string) (*domain.DepositTransaction, error) {
	if m.GetDeductionByOrderFunc != nil {
		return m.GetDeductionByOrderFunc(ctx, vendorID, orderID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.txs {
		if t.Type == domain.TransactionTypeDeduction && t.VendorID == vendorID && t.OrderID == orderID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

// ListByVendor returns newest first.
func (m *MockDepositTransactionRepository) ListByVendor(ctx context.Context, vendorID string, filter domain.TransactionFilter) ([]*domain.DepositTransaction, error) {
	if m.ListByVendorFunc != nil {
		return m.ListByVendorFunc(ctx, vendorID, filter)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.DepositTransaction
	for i := len(m.txs) - 1; i >= 0; i-- {
		t := m.txs[i]
		if t.VendorID != vendorID || (filter.Type != "" && t.Type != filter.Type) {
			continue
		}
		cp := *t
		matched = append(matched, &cp)
	}
	return page(matched, filter.Limit, filter.Offset), nil
}

func (m *MockDepositTransactionRepository) SumByVendor(ctx context.Context, vendorID string) (decimal.Decimal, error) {
	if m.SumByVendorFunc != nil {
		return m.SumByVendorFunc(ctx, vendorID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range m.txs {
		if t.VendorID == vendorID {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

// All returns every stored transaction in insertion order.
func (m *MockDepositTransactionRepository) All() []*domain.DepositTransaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.DepositTransaction, len(m.txs))
	copy(out, m.txs)
	return out
}

// MockOutboxRepository is an in-memory OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublishedFunc func(ctx context.Context, before time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	onRollback(tx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, e := range m.events {
			if e == event {
				m.events = append(m.events[:i], m.events[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			out = append(out, e)
		}
	}
	return page(out, limit, 0), nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return page(out, limit, offset), nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return nil
}

// Events returns every stored event in insertion order.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.OutboxEvent, len(m.events))
	copy(out, m.events)
	return out
}

// MockTransactionManager is a mock implementation of TransactionManager.
// Transactions run one at a time, so concurrent callers observe each other's
// committed writes the way row locks would order them.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	once sync.Once
	sem  chan struct{}
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.once.Do(func() { m.sem = make(chan struct{}, 1) })

	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &MockTransaction{release: func() { <-m.sem }}, nil
}

// MockTransaction is a mock implementation of Transaction. Writes registered
// through OnRollback are undone on Rollback.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	mu        sync.Mutex
	undo      []func()
	done      bool
	release   func()
	Committed bool
}

// OnRollback registers fn to run if the transaction is rolled back.
func (m *MockTransaction) OnRollback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = append(m.undo, fn)
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return nil
	}
	m.done = true
	m.undo = nil
	m.Committed = true
	m.mu.Unlock()

	if m.release != nil {
		m.release()
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		if err := m.RollbackFunc(ctx); err != nil {
			return err
		}
	}
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return nil
	}
	undo := m.undo
	m.done = true
	m.undo = nil
	m.mu.Unlock()

	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
	if m.release != nil {
		m.release()
	}
	return nil
}

// MockRetrier is a mock implementation of Retrier that runs the operation once.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error

	mu    sync.Mutex
	Calls int
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockDeductor is a mock implementation of usecase.Deductor.
type MockDeductor struct {
	DeductFunc func(ctx context.Context, vendorOrderID string) (*usecase.DeductResult, error)

	mu    sync.Mutex
	Calls int
}

func (m *MockDeductor) Deduct(ctx context.Context, vendorOrderID string) (*usecase.DeductResult, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.DeductFunc != nil {
		return m.DeductFunc(ctx, vendorOrderID)
	}
	return &usecase.DeductResult{TransactionID: "mock-deduction"}, nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
