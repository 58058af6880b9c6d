// File: studioz/handlers/clientstate.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"studioz/services/clientstate"
	"studioz/utils"
)

type ClientStateHandler struct {
	Store clientstate.Store
}

func NewClientStateHandler(store clientstate.Store) *ClientStateHandler {
	return &ClientStateHandler{Store: store}
}

func (h *ClientStateHandler) ListClientStateHandler(c *gin.Context) {
	owner, ok := ownerOf(c)
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "Missing session", "")
		return
	}
	entries, err := h.Store.All(c.Request.Context(), owner)
	if err != nil {
		respondError(c, "Failed to load client state", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *ClientStateHandler) GetClientStateHandler(c *gin.Context) {
	owner, ok := ownerOf(c)
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "Missing session", "")
		return
	}
	entry, err := h.Store.Get(c.Request.Context(), owner, c.Param("key"))
	if err != nil {
		respondError(c, "Failed to load client state", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// PutClientStateHandler accepts {"value": <json>}.
func (h *ClientStateHandler) PutClientStateHandler(c *gin.Context) {
	owner, ok := ownerOf(c)
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "Missing session", "")
		return
	}
	var body struct {
		Value json.RawMessage `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid client state", err.Error())
		return
	}
	entry, err := h.Store.Put(c.Request.Context(), owner, c.Param("key"), body.Value)
	if err != nil {
		respondError(c, "Failed to store client state", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *ClientStateHandler) DeleteClientStateHandler(c *gin.Context) {
	owner, ok := ownerOf(c)
	if !ok {
		utils.JSONError(c, http.StatusBadRequest, "Missing session", "")
		return
	}
	if err := h.Store.Delete(c.Request.Context(), owner, c.Param("key")); err != nil {
		respondError(c, "Failed to delete client state", err)
		return
	}
	c.Status(http.StatusNoContent)
}
