package models

import "time"

// CartItem is one reserved line; Quantity is the number of contiguous hours.
type CartItem struct {
	ItemID        string        `bson:"itemId" json:"itemId" binding:"required"`
	StudioID      string        `bson:"studioId" json:"studioId"`
	Name          LocalizedText `bson:"name" json:"name"`
	StudioName    LocalizedText `bson:"studioName" json:"studioName"`
	BookingDate   string        `bson:"bookingDate" json:"bookingDate" binding:"required"` // "DD/MM/YYYY"
	StartTime     string        `bson:"startTime" json:"startTime" binding:"required"`     // "HH:MM"
	Quantity      int           `bson:"quantity" json:"quantity"`
	Price         float64       `bson:"price" json:"price"`
	Total         float64       `bson:"total" json:"total"`
	ReservationID string        `bson:"reservationId,omitempty" json:"reservationId,omitempty"`
	CustomerName  string        `bson:"customerName,omitempty" json:"costumerName,omitempty"`
	CustomerPhone string        `bson:"customerPhone,omitempty" json:"costumerPhone,omitempty"`
	Comment       string        `bson:"comment,omitempty" json:"comment,omitempty"`
	StudioImgURL  string        `bson:"studioImgUrl,omitempty" json:"studioImgUrl,omitempty"`
	AddedAt       time.Time     `bson:"addedAt" json:"addedAt"`
}

// Cart is owned either by a user or by an anonymous session.
type Cart struct {
	OwnerID   string     `bson:"ownerId" json:"ownerId"`
	Anonymous bool       `bson:"anonymous" json:"anonymous"`
	Items     []CartItem `bson:"items" json:"items"`
	Version   int        `bson:"version" json:"version"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// StudioSubtotal groups cart totals by studio.
type StudioSubtotal struct {
	StudioID   string        `json:"studioId"`
	StudioName LocalizedText `json:"studioName"`
	Hours      int           `json:"hours"`
	Subtotal   float64       `json:"subtotal"`
}

// CartSummary is the priced view of a cart.
type CartSummary struct {
	Studios  []StudioSubtotal `json:"studios"`
	Subtotal float64          `json:"subtotal"`
	Discount float64          `json:"discount,omitempty"`
	Coupon   string           `json:"coupon,omitempty"`
	Total    float64          `json:"total"`
}

// Coupon is the upstream answer to a studio coupon validation.
type Coupon struct {
	Code           string  `json:"code"`
	DiscountType   string  `json:"discountType"` // "percentage" or "fixed"
	DiscountValue  float64 `json:"discountValue"`
	DiscountAmount float64 `json:"discountAmount"`
	Description    string  `json:"description,omitempty"`
}
