package cart

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"studioz/models"
	"studioz/utils"
)

const (
	LevelSuccess = "success"
	LevelError   = "error"
)

// Notice is the toast shown after a mutation.
type Notice struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	UndoToken string `json:"undoToken,omitempty"`
}

// Result is what every cart mutation returns to the caller.
type Result struct {
	Cart   *models.Cart `json:"cart,omitempty"`
	Notice Notice       `json:"notice"`
}

// Mutation describes one cart change. Do receives the cart as it was before
// and returns the new cart plus an optional inverse.
type Mutation struct {
	Kind    string
	Owner   models.Owner
	Also    []models.Owner
	Success string
	Do      func(ctx context.Context, before *models.Cart) (*models.Cart, *UndoAction, error)
}

// Mutations runs cart changes under a per-owner lock, invalidates cached
// reads and hands out undo tokens.
type Mutations struct {
	Service CartService
	Cache   *Cache
	Undos   *UndoStore
	locks   *keyedMutex
}

func NewMutations(service CartService, cache *Cache, undo *UndoStore) *Mutations {
	return &Mutations{Service: service, Cache: cache, Undos: undo, locks: newKeyedMutex()}
}

func (m *Mutations) Run(ctx context.Context, mu Mutation) (*Result, error) {
	owners := append([]models.Owner{mu.Owner}, mu.Also...)
	keys := make([]string, len(owners))
	for i, o := range owners {
		keys[i] = o.Key()
	}
	unlock := m.locks.Lock(keys...)
	defer unlock()

	logger := utils.GetLogger()
	before, err := m.Service.Get(ctx, mu.Owner)
	if err != nil {
		return &Result{Notice: Notice{Level: LevelError, Message: "Could not load cart"}}, err
	}

	after, inverse, err := mu.Do(ctx, before)
	if after != nil || err == nil {
		m.invalidate(ctx, owners)
	}
	if err != nil {
		utils.CartMutations.WithLabelValues(mu.Kind, "error").Inc()
		logger.Warn("Cart mutation failed", zap.String("kind", mu.Kind), zap.String("owner", mu.Owner.Key()), zap.Error(err))
		return &Result{Cart: after, Notice: Notice{Level: LevelError, Message: failureMessage(err)}}, err
	}
	utils.CartMutations.WithLabelValues(mu.Kind, "ok").Inc()

	res := &Result{Cart: after, Notice: Notice{Level: LevelSuccess, Message: mu.Success}}
	if inverse != nil && m.Undos != nil {
		inverse.Owner = mu.Owner.Key()
		token, err := m.Undos.Save(ctx, *inverse)
		if err != nil {
			logger.Warn("Failed to store undo action", zap.String("kind", mu.Kind), zap.Error(err))
		} else {
			res.Notice.UndoToken = token
		}
	}
	return res, nil
}

func (m *Mutations) invalidate(ctx context.Context, owners []models.Owner) {
	keys := make([]string, 0, 2*len(owners))
	for _, o := range owners {
		keys = append(keys, CartKey(o), SummaryKey(o))
	}
	if err := m.Cache.Invalidate(ctx, keys...); err != nil {
		utils.GetLogger().Warn("Failed to invalidate cart cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Cart is the cached read of an owner's cart.
func (m *Mutations) Cart(ctx context.Context, owner models.Owner) (*models.Cart, error) {
	var c models.Cart
	if m.Cache.get(ctx, CartKey(owner), &c) {
		return &c, nil
	}
	cp, err := m.Service.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	m.Cache.set(ctx, CartKey(owner), cp)
	return cp, nil
}

// Summary is cached only when no coupon is given.
func (m *Mutations) Summary(ctx context.Context, owner models.Owner, coupon string) (*models.CartSummary, error) {
	if coupon != "" {
		return m.Service.Summary(ctx, owner, coupon)
	}
	var sum models.CartSummary
	if m.Cache.get(ctx, SummaryKey(owner), &sum) {
		return &sum, nil
	}
	sp, err := m.Service.Summary(ctx, owner, "")
	if err != nil {
		return nil, err
	}
	m.Cache.set(ctx, SummaryKey(owner), sp)
	return sp, nil
}

func (m *Mutations) AddItem(ctx context.Context, owner models.Owner, line models.CartItem) (*Result, error) {
	line.BookingDate = canonicalDate(line.BookingDate)
	return m.Run(ctx, Mutation{
		Kind: "add", Owner: owner, Success: "Item added to cart",
		Do: func(ctx context.Context, before *models.Cart) (*models.Cart, *UndoAction, error) {
			existed := findLine(before.Items, line.ItemID, line.BookingDate) >= 0
			after, err := m.Service.AddItem(ctx, owner, line)
			if err != nil {
				return nil, nil, err
			}
			if existed {
				added := line.Quantity
				if added < 1 {
					added = 1
				}
				return after, &UndoAction{Kind: UndoDecrement, ItemID: line.ItemID, BookingDate: line.BookingDate, Times: added}, nil
			}
			return after, &UndoAction{Kind: UndoRemove, ItemID: line.ItemID, BookingDate: line.BookingDate}, nil
		},
	})
}

func (m *Mutations) Increment(ctx context.Context, owner models.Owner, itemID, bookingDate string) (*Result, error) {
	bookingDate = canonicalDate(bookingDate)
	return m.Run(ctx, Mutation{
		Kind: "increment", Owner: owner, Success: "Booking extended by one hour",
		Do: func(ctx context.Context, _ *models.Cart) (*models.Cart, *UndoAction, error) {
			after, err := m.Service.Increment(ctx, owner, itemID, bookingDate)
			if err != nil {
				return nil, nil, err
			}
			return after, &UndoAction{Kind: UndoDecrement, ItemID: itemID, BookingDate: bookingDate, Times: 1}, nil
		},
	})
}

func (m *Mutations) Decrement(ctx context.Context, owner models.Owner, itemID, bookingDate string) (*Result, error) {
	bookingDate = canonicalDate(bookingDate)
	return m.Run(ctx, Mutation{
		Kind: "decrement", Owner: owner, Success: "Booking shortened by one hour",
		Do: func(ctx context.Context, before *models.Cart) (*models.Cart, *UndoAction, error) {
			i := findLine(before.Items, itemID, bookingDate)
			after, err := m.Service.Decrement(ctx, owner, itemID, bookingDate)
			if err != nil {
				return nil, nil, err
			}
			if i < 0 {
				return after, nil, nil
			}
			prev := before.Items[i]
			if prev.Quantity <= 1 {
				return after, &UndoAction{Kind: UndoAdd, Lines: []models.CartItem{prev}}, nil
			}
			return after, &UndoAction{Kind: UndoIncrement, ItemID: itemID, BookingDate: bookingDate, Times: 1}, nil
		},
	})
}

func (m *Mutations) RemoveItem(ctx context.Context, owner models.Owner, itemID, bookingDate string) (*Result, error) {
	bookingDate = canonicalDate(bookingDate)
	return m.Run(ctx, Mutation{
		Kind: "remove", Owner: owner, Success: "Item removed from cart",
		Do: func(ctx context.Context, before *models.Cart) (*models.Cart, *UndoAction, error) {
			i := findLine(before.Items, itemID, bookingDate)
			after, err := m.Service.RemoveItem(ctx, owner, itemID, bookingDate)
			if err != nil {
				return nil, nil, err
			}
			if i < 0 {
				return after, nil, nil
			}
			return after, &UndoAction{Kind: UndoAdd, Lines: []models.CartItem{before.Items[i]}}, nil
		},
	})
}

func (m *Mutations) Clear(ctx context.Context, owner models.Owner) (*Result, error) {
	return m.Run(ctx, Mutation{
		Kind: "clear", Owner: owner, Success: "Cart cleared",
		Do: func(ctx context.Context, before *models.Cart) (*models.Cart, *UndoAction, error) {
			after, err := m.Service.Clear(ctx, owner)
			if after == nil {
				return nil, nil, err
			}
			var released []models.CartItem
			for _, line := range before.Items {
				if findLine(after.Items, line.ItemID, line.BookingDate) < 0 {
					released = append(released, line)
				}
			}
			if err != nil || len(released) == 0 {
				return after, nil, err
			}
			return after, &UndoAction{Kind: UndoAdd, Lines: released}, nil
		},
	})
}

func (m *Mutations) Replace(ctx context.Context, owner models.Owner, items []models.CartItem) (*Result, error) {
	return m.Run(ctx, Mutation{
		Kind: "replace", Owner: owner, Success: "Cart updated",
		Do: func(ctx context.Context, before *models.Cart) (*models.Cart, *UndoAction, error) {
			after, err := m.Service.Replace(ctx, owner, items)
			if err != nil {
				return nil, nil, err
			}
			return after, &UndoAction{Kind: UndoReplace, Lines: before.Items}, nil
		},
	})
}

func (m *Mutations) Merge(ctx context.Context, session, user models.Owner) (*Result, error) {
	return m.Run(ctx, Mutation{
		Kind: "merge", Owner: user, Also: []models.Owner{session}, Success: "Cart merged",
		Do: func(ctx context.Context, _ *models.Cart) (*models.Cart, *UndoAction, error) {
			after, err := m.Service.MergeAnonymous(ctx, session, user)
			return after, nil, err
		},
	})
}

// Undo replays the inverse stored under token. Tokens of another owner are
// reported as expired.
func (m *Mutations) Undo(ctx context.Context, owner models.Owner, token string) (*Result, error) {
	if m.Undos == nil {
		return nil, ErrUndoExpired
	}
	action, err := m.Undos.Take(ctx, token)
	if err != nil {
		return &Result{Notice: Notice{Level: LevelError, Message: failureMessage(err)}}, err
	}
	if action.Owner != owner.Key() {
		return &Result{Notice: Notice{Level: LevelError, Message: failureMessage(ErrUndoExpired)}}, ErrUndoExpired
	}

	return m.Run(ctx, Mutation{
		Kind: "undo", Owner: owner, Success: "Change undone",
		Do: func(ctx context.Context, _ *models.Cart) (*models.Cart, *UndoAction, error) {
			after, err := m.apply(ctx, owner, *action)
			return after, nil, err
		},
	})
}

func (m *Mutations) apply(ctx context.Context, owner models.Owner, a UndoAction) (*models.Cart, error) {
	var c *models.Cart
	var err error
	switch a.Kind {
	case UndoRemove:
		return m.Service.RemoveItem(ctx, owner, a.ItemID, a.BookingDate)
	case UndoIncrement, UndoDecrement:
		step := m.Service.Increment
		if a.Kind == UndoDecrement {
			step = m.Service.Decrement
		}
		for i := 0; i < max(a.Times, 1); i++ {
			if c, err = step(ctx, owner, a.ItemID, a.BookingDate); err != nil {
				return c, err
			}
		}
		return c, nil
	case UndoAdd:
		for _, line := range a.Lines {
			line.ReservationID = ""
			if c, err = m.Service.AddItem(ctx, owner, line); err != nil {
				return c, err
			}
		}
		return c, nil
	case UndoReplace:
		return m.Service.Replace(ctx, owner, a.Lines)
	}
	return nil, ErrUndoExpired
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrLineNotFound):
		return "This booking is no longer in your cart"
	case errors.Is(err, ErrExceedsAvailability):
		return "No more hours are available after this booking"
	case errors.Is(err, ErrInvalidLine):
		return "Please choose a date and start time"
	case errors.Is(err, ErrUndoExpired):
		return "This change can no longer be undone"
	case errors.Is(err, ErrPartialClear):
		return "Some bookings could not be released; please try again"
	}
	return bookingFailureMessage(err)
}
