package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studioz/handlers"
	"studioz/middleware"
	"studioz/utils"
)

// RegisterAvailabilityRoutes registers the item availability endpoints.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/availability/items/:itemId")
	{
		api.GET("", hb.ItemAvailabilityHandler)
		api.GET("/slots", hb.ItemSlotsHandler)
		api.POST("/validate", hb.ValidateBookingHandler)
	}
}

// RegisterCartRoutes registers the cart mutation pipeline.
func RegisterCartRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/cart")
	{
		api.GET("", hb.GetCartHandler)
		api.GET("/summary", hb.CartSummaryHandler)
		api.POST("/items", hb.AddCartItemHandler)
		api.POST("/items/increment", hb.IncrementItemHandler)
		api.POST("/items/decrement", hb.DecrementItemHandler)
		api.DELETE("/items", hb.RemoveItemHandler)
		api.PUT("", hb.ReplaceCartHandler)
		api.DELETE("", hb.ClearCartHandler)
		api.POST("/undo/:token", hb.UndoHandler)

		// Merging needs both the session and a signed-in user.
		api.POST("/merge", middleware.RequireUser(), hb.MergeCartHandler)
	}
}

// RegisterClientStateRoutes registers the persisted client state endpoints.
func RegisterClientStateRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/client-state")
	{
		api.GET("", hb.ListClientStateHandler)
		api.GET("/:key", hb.GetClientStateHandler)
		api.PUT("/:key", hb.PutClientStateHandler)
		api.DELETE("/:key", hb.DeleteClientStateHandler)
	}
	r.POST("/api/client-errors", hb.ClientErrorHandler)
}

// RegisterSearchRoutes registers the upstream search proxy.
func RegisterSearchRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/api/search/:kind", hb.SearchHandler)
}

// RegisterMerchantRoutes registers studio owner endpoints.
func RegisterMerchantRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/merchant")
	{
		api.Use(middleware.RequireUser())
		api.POST("/studios/:studioId/block", hb.BlockStudioHoursHandler)
	}
}

// RegisterHealthRoute registers health and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Studioz", "services": utils.GetHealthStatus()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, allowedOrigins []string) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", utils.SessionHeader, "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length", utils.SessionHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.SessionMiddleware())
	r.Use(middleware.OptionalJWTAuth())

	RegisterHealthRoute(r)
	RegisterAvailabilityRoutes(r, hb)
	RegisterCartRoutes(r, hb)
	RegisterClientStateRoutes(r, hb)
	RegisterSearchRoutes(r, hb)
	RegisterMerchantRoutes(r, hb)
}
