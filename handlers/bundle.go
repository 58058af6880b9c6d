// File: studioz/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Availability endpoints
	ItemAvailabilityHandler gin.HandlerFunc
	ItemSlotsHandler        gin.HandlerFunc
	ValidateBookingHandler  gin.HandlerFunc

	// Cart endpoints
	GetCartHandler       gin.HandlerFunc
	CartSummaryHandler   gin.HandlerFunc
	AddCartItemHandler   gin.HandlerFunc
	IncrementItemHandler gin.HandlerFunc
	DecrementItemHandler gin.HandlerFunc
	RemoveItemHandler    gin.HandlerFunc
	ReplaceCartHandler   gin.HandlerFunc
	ClearCartHandler     gin.HandlerFunc
	MergeCartHandler     gin.HandlerFunc
	UndoHandler          gin.HandlerFunc

	// Client state endpoints
	ListClientStateHandler   gin.HandlerFunc
	GetClientStateHandler    gin.HandlerFunc
	PutClientStateHandler    gin.HandlerFunc
	DeleteClientStateHandler gin.HandlerFunc

	// Client error reports
	ClientErrorHandler gin.HandlerFunc

	// Search
	SearchHandler gin.HandlerFunc

	// Merchant endpoints
	BlockStudioHoursHandler gin.HandlerFunc
}

// NewHandlerBundle wires the handler structs into the bundle used by routes.
func NewHandlerBundle(
	availability *AvailabilityHandler,
	cart *CartHandler,
	state *ClientStateHandler,
	clientErrors *ClientErrorHandler,
	search *SearchHandler,
	merchant *MerchantHandler,
) *HandlerBundle {
	return &HandlerBundle{
		ItemAvailabilityHandler: availability.ItemAvailabilityHandler,
		ItemSlotsHandler:        availability.ItemSlotsHandler,
		ValidateBookingHandler:  availability.ValidateBookingHandler,

		GetCartHandler:       cart.GetCartHandler,
		CartSummaryHandler:   cart.CartSummaryHandler,
		AddCartItemHandler:   cart.AddCartItemHandler,
		IncrementItemHandler: cart.IncrementItemHandler,
		DecrementItemHandler: cart.DecrementItemHandler,
		RemoveItemHandler:    cart.RemoveItemHandler,
		ReplaceCartHandler:   cart.ReplaceCartHandler,
		ClearCartHandler:     cart.ClearCartHandler,
		MergeCartHandler:     cart.MergeCartHandler,
		UndoHandler:          cart.UndoHandler,

		ListClientStateHandler:   state.ListClientStateHandler,
		GetClientStateHandler:    state.GetClientStateHandler,
		PutClientStateHandler:    state.PutClientStateHandler,
		DeleteClientStateHandler: state.DeleteClientStateHandler,

		ClientErrorHandler: clientErrors.ReportHandler,
		SearchHandler:      search.SearchHandler,

		BlockStudioHoursHandler: merchant.BlockStudioHoursHandler,
	}
}
