package cart

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"studioz/models"
	"studioz/services/gateway"
	"studioz/services/intent"
)

type memoryStore struct {
	mu      sync.Mutex
	carts   map[string]models.Cart
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{carts: map[string]models.Cart{}}
}

func (m *memoryStore) Load(_ context.Context, owner models.Owner) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[owner.Key()]
	if !ok {
		return emptyCart(owner), nil
	}
	c.Items = append([]models.CartItem{}, c.Items...)
	return &c, nil
}

func (m *memoryStore) Save(_ context.Context, owner models.Owner, c *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *c
	cp.Items = append([]models.CartItem{}, c.Items...)
	m.carts[owner.Key()] = cp
	return nil
}

func (m *memoryStore) Delete(_ context.Context, owner models.Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, owner.Key())
	return nil
}

func (m *memoryStore) put(owner models.Owner, items ...models.CartItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[owner.Key()] = models.Cart{OwnerID: owner.ID, Anonymous: owner.Anonymous, Items: items}
}

type recordingLog struct {
	mu     sync.Mutex
	states map[string]models.IntentState
	kinds  map[string]models.IntentKind
}

func newRecordingLog() *recordingLog {
	return &recordingLog{states: map[string]models.IntentState{}, kinds: map[string]models.IntentKind{}}
}

func (l *recordingLog) Begin(_ context.Context, in models.ReservationIntent) (*models.ReservationIntent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	in.ID = uuid.New().String()
	in.State = models.IntentPending
	l.states[in.ID] = in.State
	l.kinds[in.ID] = in.Kind
	return &in, nil
}

func (l *recordingLog) Commit(_ context.Context, id, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states[id] = models.IntentCommitted
	return nil
}

func (l *recordingLog) RollBack(_ context.Context, id string, _ error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states[id] = models.IntentRolledBack
	return nil
}

func (l *recordingLog) Sweep(context.Context, time.Time) (intent.SweepResult, error) {
	return intent.SweepResult{}, nil
}

func (l *recordingLog) count(state models.IntentState) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, s := range l.states {
		if s == state {
			n++
		}
	}
	return n
}

type mockBookings struct {
	mock.Mock
}

func (m *mockBookings) ReserveItemTimeSlots(ctx context.Context, req gateway.ReserveRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockBookings) ReserveNextTimeSlot(ctx context.Context, req gateway.SlotRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockBookings) ReleaseLastTimeSlot(ctx context.Context, req gateway.SlotRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockBookings) ReleaseTimeSlots(ctx context.Context, req gateway.SlotRequest) error {
	return m.Called(ctx, req).Error(0)
}

type mockCatalogue struct {
	mock.Mock
}

func (m *mockCatalogue) GetItem(ctx context.Context, id string) (*models.Item, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*models.Item)
	return item, args.Error(1)
}

func (m *mockCatalogue) GetStudio(ctx context.Context, id string) (*models.Studio, error) {
	args := m.Called(ctx, id)
	studio, _ := args.Get(0).(*models.Studio)
	return studio, args.Error(1)
}

func (m *mockCatalogue) Search(ctx context.Context, kind, q string) (json.RawMessage, error) {
	args := m.Called(ctx, kind, q)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *mockCatalogue) ValidateStudioCoupon(ctx context.Context, code, studioID string, subtotal float64) (*models.Coupon, error) {
	args := m.Called(ctx, code, studioID, subtotal)
	cp, _ := args.Get(0).(*models.Coupon)
	return cp, args.Error(1)
}

type memoryMarker struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryMarker() *memoryMarker {
	return &memoryMarker{entries: map[string]string{}}
}

func (m *memoryMarker) Put(_ context.Context, owner models.Owner, key string, value json.RawMessage) (*models.ClientStateEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[owner.Key()+"/"+key] = string(value)
	return &models.ClientStateEntry{Key: key, Version: 1, Value: value}, nil
}

func (m *memoryMarker) Delete(_ context.Context, owner models.Owner, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, owner.Key()+"/"+key)
	return nil
}

func (m *memoryMarker) get(owner models.Owner, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[owner.Key()+"/"+key]
	return v, ok
}
