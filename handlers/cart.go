// File: studioz/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studioz/models"
	"studioz/services/cart"
	"studioz/utils"
)

// CartHandler exposes the cart mutation pipeline.
type CartHandler struct {
	Mutations *cart.Mutations
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(m *cart.Mutations) *CartHandler {
	RegisterValidators()
	return &CartHandler{Mutations: m}
}

type lineRef struct {
	ItemID      string `json:"itemId" binding:"required"`
	BookingDate string `json:"bookingDate" binding:"required,bookingdate"`
}

type replaceRequest struct {
	Items []models.CartItem `json:"items" binding:"dive"`
}

func (h *CartHandler) owner(c *gin.Context) (models.Owner, bool) {
	owner, ok := ownerOf(c)
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "Missing session", "send "+utils.SessionHeader+" or a bearer token")
	}
	return owner, ok
}

// reply writes a mutation result; failures carry the notice and the cart as it now stands.
func reply(c *gin.Context, res *cart.Result, err error) {
	if err == nil {
		c.JSON(http.StatusOK, res)
		return
	}
	status, code := statusFor(err)
	body := gin.H{"message": "Cart update failed", "details": err.Error(), "code": code}
	if res != nil {
		body["message"] = res.Notice.Message
		body["notice"] = res.Notice
		if res.Cart != nil {
			body["cart"] = res.Cart
		}
	}
	c.JSON(status, body)
}

func (h *CartHandler) GetCartHandler(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	cp, err := h.Mutations.Cart(c.Request.Context(), owner)
	if err != nil {
		getLogger(c).Error("Failed to load cart", zap.String("owner", owner.Key()), zap.Error(err))
		respondError(c, "Failed to load cart", err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

func (h *CartHandler) CartSummaryHandler(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	sum, err := h.Mutations.Summary(c.Request.Context(), owner, c.Query("coupon"))
	if err != nil {
		respondError(c, "Failed to price cart", err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *CartHandler) AddCartItemHandler(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var line models.CartItem
	if err := c.ShouldBindJSON(&line); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid cart item", err.Error())
		return
	}
	res, err := h.Mutations.AddItem(c.Request.Context(), owner, line)
	reply(c, res, err)
}

func (h *CartHandler) bindRef(c *gin.Context) (lineRef, bool) {
	var ref lineRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid cart line", err.Error())
		return ref, false
	}
	return ref, true
}

func (h *CartHandler) IncrementItemHandler(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	ref, ok := h.bindRef(c)
	if !ok {
		return
	}
	res, err := h.Mutations.Increment(c.Request.Context(), owner, ref.ItemID, ref.BookingDate)
	reply(c, res, err)
}

func (h *CartHandler) DecrementItemHandler(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	ref, ok := h.bindRef(c)
	if !ok {
		return
	}
	res, err := h.Mutations.Decrement(c.Request.Context(), owner, ref.ItemID, ref.BookingDate)
	reply(c, res, err)
}

func (h *CartHandler) RemoveItemHandler(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	ref, ok := h.bindRef(c)
	if !ok {
		return
	}
	res, err := h.Mutations.RemoveItem(c.Request.Context(), owner, ref.ItemID, ref.BookingDate)
	reply(c, res, err)
}

func (h *CartHandler) ReplaceCartHandler(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var req replaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid cart", err.Error())
		return
	}
	res, err := h.Mutations.Replace(c.Request.Context(), owner, req.Items)
	reply(c, res, err)
}

func (h *CartHandler) ClearCartHandler(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	res, err := h.Mutations.Clear(c.Request.Context(), owner)
	reply(c, res, err)
}

// MergeCartHandler moves the session cart into the authenticated user's cart.
func (h *CartHandler) MergeCartHandler(c *gin.Context) {
	userID := c.GetString(utils.CtxUserID)
	sessionID := c.GetString(utils.CtxSessionID)
	if userID == "" || sessionID == "" {
		utils.JSONError(c, http.StatusBadRequest, "Merge needs a signed-in user and a session", "")
		return
	}
	res, err := h.Mutations.Merge(c.Request.Context(),
		models.Owner{ID: sessionID, Anonymous: true},
		models.Owner{ID: userID})
	reply(c, res, err)
}

func (h *CartHandler) UndoHandler(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	res, err := h.Mutations.Undo(c.Request.Context(), owner, c.Param("token"))
	reply(c, res, err)
}
