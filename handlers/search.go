package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studioz/services/search"
)

type SearchHandler struct {
	Service search.SearchService
}

func NewSearchHandler(s search.SearchService) *SearchHandler {
	return &SearchHandler{Service: s}
}

func (h *SearchHandler) SearchHandler(c *gin.Context) {
	raw, err := h.Service.Search(c.Request.Context(), c.Param("kind"), c.Query("q"))
	if err != nil {
		respondError(c, "Search failed", err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
