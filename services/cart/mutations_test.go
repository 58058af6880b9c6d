package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studioz/models"
	"studioz/services/gateway"
)

func newMutations(t *testing.T) (*Mutations, *fixture, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newFixture()
	m := NewMutations(f.svc, &Cache{Client: client, TTL: time.Minute}, &UndoStore{Client: client, TTL: 5 * time.Minute})
	return m, f, mr
}

func TestMutationInvalidatesCachedReads(t *testing.T) {
	m, f, mr := newMutations(t)
	ctx := context.Background()
	f.store.put(alice, line("item-1", 1))

	_, err := m.Cart(ctx, alice)
	require.NoError(t, err)
	_, err = m.Summary(ctx, alice, "")
	require.NoError(t, err)
	assert.True(t, mr.Exists(CartKey(alice)))
	assert.True(t, mr.Exists(SummaryKey(alice)))

	f.bookings.On("ReserveNextTimeSlot", mock.Anything, mock.Anything).Return("res-1", nil).Once()
	res, err := m.Increment(ctx, alice, "item-1", "18/10/2026")
	require.NoError(t, err)
	assert.Equal(t, LevelSuccess, res.Notice.Level)
	assert.False(t, mr.Exists(CartKey(alice)))
	assert.False(t, mr.Exists(SummaryKey(alice)))

	c, err := m.Cart(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestFailedMutationReturnsErrorNotice(t *testing.T) {
	m, f, _ := newMutations(t)
	f.store.put(alice, line("item-1", 1))
	f.bookings.On("ReserveNextTimeSlot", mock.Anything, mock.Anything).
		Return("", &gateway.UpstreamError{Status: 409}).Once()

	res, err := m.Increment(context.Background(), alice, "item-1", "18/10/2026")
	assert.ErrorIs(t, err, gateway.ErrSlotTaken)
	assert.Equal(t, LevelError, res.Notice.Level)
	assert.Equal(t, "This time slot was just booked by someone else", res.Notice.Message)
	assert.Empty(t, res.Notice.UndoToken)
}

func TestUndoReplaysInverseOnce(t *testing.T) {
	m, f, _ := newMutations(t)
	ctx := context.Background()
	f.bookings.On("ReserveItemTimeSlots", mock.Anything, mock.Anything).Return("res-1", nil).Once()
	f.bookings.On("ReleaseTimeSlots", mock.Anything, mock.Anything).Return(nil).Once()

	res, err := m.AddItem(ctx, alice, line("item-1", 2))
	require.NoError(t, err)
	token := res.Notice.UndoToken
	require.NotEmpty(t, token)

	undone, err := m.Undo(ctx, alice, token)
	require.NoError(t, err)
	assert.Empty(t, undone.Cart.Items)
	assert.Empty(t, undone.Notice.UndoToken)

	_, err = m.Undo(ctx, alice, token)
	assert.ErrorIs(t, err, ErrUndoExpired)
	f.bookings.AssertExpectations(t)
}

func TestUndoOfDecrementToZeroRestoresLine(t *testing.T) {
	m, f, _ := newMutations(t)
	ctx := context.Background()
	f.store.put(alice, line("item-1", 1))
	f.bookings.On("ReleaseLastTimeSlot", mock.Anything, mock.Anything).Return(nil).Once()
	f.bookings.On("ReserveItemTimeSlots", mock.Anything, mock.MatchedBy(func(r gateway.ReserveRequest) bool {
		return r.Hours == 1
	})).Return("res-2", nil).Once()

	res, err := m.Decrement(ctx, alice, "item-1", "18/10/2026")
	require.NoError(t, err)
	assert.Empty(t, res.Cart.Items)

	undone, err := m.Undo(ctx, alice, res.Notice.UndoToken)
	require.NoError(t, err)
	require.Len(t, undone.Cart.Items, 1)
	assert.Equal(t, "res-2", undone.Cart.Items[0].ReservationID)
}

func TestUndoTokenOfAnotherOwnerIsRejected(t *testing.T) {
	m, f, _ := newMutations(t)
	ctx := context.Background()
	f.store.put(alice, line("item-1", 2))
	f.bookings.On("ReserveNextTimeSlot", mock.Anything, mock.Anything).Return("res-1", nil).Once()

	res, err := m.Increment(ctx, alice, "item-1", "18/10/2026")
	require.NoError(t, err)

	_, err = m.Undo(ctx, visitor, res.Notice.UndoToken)
	assert.ErrorIs(t, err, ErrUndoExpired)
}

func TestMergeInvalidatesBothOwners(t *testing.T) {
	m, f, mr := newMutations(t)
	ctx := context.Background()
	f.store.put(visitor, line("item-1", 1))
	_, _ = m.Cart(ctx, visitor)
	_, _ = m.Cart(ctx, alice)

	res, err := m.Merge(ctx, visitor, alice)
	require.NoError(t, err)
	assert.Len(t, res.Cart.Items, 1)
	assert.False(t, mr.Exists(CartKey(visitor)))
	assert.False(t, mr.Exists(CartKey(alice)))
}

func TestMutationsSerializePerOwner(t *testing.T) {
	m, f, _ := newMutations(t)
	f.store.put(alice, line("item-1", 1))
	f.bookings.On("ReserveNextTimeSlot", mock.Anything, mock.Anything).Return("res-1", nil).Times(10)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Increment(context.Background(), alice, "item-1", "18/10/2026")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, _ := f.store.Load(context.Background(), alice)
	assert.Equal(t, 11, c.Items[0].Quantity)
	assert.Equal(t, lineTotal(120, 11), c.Items[0].Total)
}

func TestKeyedMutexForgetsReleasedKeys(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("b", "a", "a")
	assert.Len(t, k.locks, 2)
	unlock()
	assert.Empty(t, k.locks)
}

func TestSessionStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := &SessionStore{Client: client, TTL: 7 * 24 * time.Hour}
	ctx := context.Background()

	empty, err := store.Load(ctx, visitor)
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)

	c := &models.Cart{Items: []models.CartItem{line("item-1", 1)}}
	require.NoError(t, store.Save(ctx, visitor, c))
	assert.Equal(t, 7*24*time.Hour, mr.TTL(sessionKey(visitor)))

	loaded, err := store.Load(ctx, visitor)
	require.NoError(t, err)
	assert.True(t, loaded.Anonymous)
	assert.Len(t, loaded.Items, 1)

	require.NoError(t, store.Delete(ctx, visitor))
	assert.False(t, mr.Exists(sessionKey(visitor)))
}
