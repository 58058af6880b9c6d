// File: studioz/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studioz/config"
	"studioz/cron"
	"studioz/database"
	cartRepo "studioz/database/repository/cart"
	intentRepo "studioz/database/repository/intent"
	"studioz/handlers"
	"studioz/middleware"
	"studioz/routes"
	"studioz/services/availability"
	"studioz/services/cart"
	"studioz/services/clientstate"
	"studioz/services/gateway"
	"studioz/services/intent"
	"studioz/services/reload"
	"studioz/services/search"
	"studioz/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.InitDB()
	utils.InitRedis()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// repositories.
	intents := intentRepo.NewMongoIntentRepo()
	carts := cartRepo.NewMongoCartRepo()
	if err := intents.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to create intent indexes: %v", err)
	}
	if err := carts.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to create cart indexes: %v", err)
	}

	cacheClient := utils.GetCacheClient()
	sessionClient := utils.GetSessionClient()

	// services.
	upstream := gateway.NewClient(config.AppConfig.UpstreamAPIURL, config.AppConfig.UpstreamTimeout())
	resolver := availability.NewResolver(config.AppConfig.Location())
	intentLog := intent.NewLog(intents, upstream)
	states := clientstate.NewRedisStore(sessionClient, config.AppConfig.AnonCartTTL())

	cartService := &cart.DefaultCartService{
		Store: &cart.OwnerStore{
			Users:    &cart.UserStore{Repo: carts},
			Sessions: &cart.SessionStore{Client: sessionClient, TTL: config.AppConfig.AnonCartTTL()},
		},
		Bookings:     upstream,
		Intents:      intentLog,
		Catalogue:    upstream,
		Resolver:     resolver,
		Reservations: states,
	}
	mutations := cart.NewMutations(
		cartService,
		&cart.Cache{Client: cacheClient, TTL: time.Minute},
		&cart.UndoStore{Client: cacheClient, TTL: config.AppConfig.UndoTTL()},
	)
	guard := &reload.Guard{
		Marker:   &reload.RedisMarker{Client: sessionClient},
		Cooldown: config.AppConfig.ReloadCooldown(),
	}
	searchService := &search.DefaultSearchService{
		Catalogue: upstream,
		Cache:     cacheClient,
		TTL:       utils.SearchCacheTTL,
	}

	// Assemble the handler bundle.
	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewAvailabilityHandler(upstream, resolver),
		handlers.NewCartHandler(mutations),
		handlers.NewClientStateHandler(states),
		handlers.NewClientErrorHandler(guard),
		handlers.NewSearchHandler(searchService),
		handlers.NewMerchantHandler(upstream),
	)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(utils.PrometheusMiddleware())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle, config.AppConfig.Origins())

	utils.StartHealthMonitor(ctx, []*redis.Client{cacheClient, sessionClient}, database.MongoClient, upstream.BreakerStates)

	stopWorker, err := cron.InitIntentSweepWorker(ctx, intentLog, config.AppConfig.IntentTTL())
	if err != nil {
		logger.Sugar().Fatalf("main: failed to start intent sweep worker: %v", err)
	}

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	stopWorker()
	stop()
	if err := database.Disconnect(shutdownCtx); err != nil {
		logger.Sugar().Warnf("main: mongo disconnect: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
