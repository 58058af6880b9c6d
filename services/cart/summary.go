package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"studioz/models"
	"studioz/services/gateway"
)

var hundred = decimal.NewFromInt(100)

// Summary prices the cart per studio. A coupon is validated against each
// studio in cart order and applied to the first studio that accepts it.
func (s *DefaultCartService) Summary(ctx context.Context, owner models.Owner, coupon string) (*models.CartSummary, error) {
	c, err := s.Store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}

	studios, subtotals := groupByStudio(c.Items)
	total := decimal.Zero
	for _, st := range subtotals {
		total = total.Add(st)
	}

	summary := &models.CartSummary{Studios: studios, Subtotal: total.Round(2).InexactFloat64()}
	discount := decimal.Zero

	if coupon != "" {
		if s.Catalogue == nil {
			return nil, gateway.ErrUnavailable
		}
		applied := false
		for i, st := range studios {
			cp, err := s.Catalogue.ValidateStudioCoupon(ctx, coupon, st.StudioID, st.Subtotal)
			if errors.Is(err, gateway.ErrInvalidCoupon) || errors.Is(err, gateway.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			discount = couponDiscount(*cp, subtotals[i])
			summary.Coupon = cp.Code
			applied = true
			break
		}
		if !applied {
			return nil, gateway.ErrInvalidCoupon
		}
	}

	summary.Discount = discount.Round(2).InexactFloat64()
	summary.Total = decimal.Max(total.Sub(discount), decimal.Zero).Round(2).InexactFloat64()
	return summary, nil
}

func groupByStudio(items []models.CartItem) ([]models.StudioSubtotal, []decimal.Decimal) {
	index := map[string]int{}
	studios := []models.StudioSubtotal{}
	var subtotals []decimal.Decimal

	for _, it := range items {
		i, ok := index[it.StudioID]
		if !ok {
			i = len(studios)
			index[it.StudioID] = i
			studios = append(studios, models.StudioSubtotal{StudioID: it.StudioID, StudioName: it.StudioName})
			subtotals = append(subtotals, decimal.Zero)
		}
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotals[i] = subtotals[i].Add(line)
		studios[i].Hours += it.Quantity
	}
	for i := range studios {
		studios[i].Subtotal = subtotals[i].Round(2).InexactFloat64()
	}
	return studios, subtotals
}

// couponDiscount never exceeds the studio subtotal it applies to.
func couponDiscount(cp models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch cp.DiscountType {
	case "percentage":
		d = subtotal.Mul(decimal.NewFromFloat(cp.DiscountValue)).Div(hundred)
	case "fixed":
		d = decimal.NewFromFloat(cp.DiscountValue)
	default:
		d = decimal.NewFromFloat(cp.DiscountAmount)
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(d, subtotal)
}
