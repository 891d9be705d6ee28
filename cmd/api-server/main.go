package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"cliphub/internal/auth"
	"cliphub/internal/catalog"
	"cliphub/internal/favorites"
	"cliphub/internal/feed"
	"cliphub/internal/live"
	"cliphub/internal/reports"
	"cliphub/internal/session"
	"cliphub/pkg/config"
	"cliphub/pkg/database"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config yaml (defaults to $CLIPHUB_CONFIG)")
		httpAddr   = flag.String("addr", ":8080", "HTTP listen address")
		liveAddr   = flag.String("live-addr", ":7070", "live event TCP listen address")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Live event fan-out (TCP + websocket observers)
	hub := live.NewHub()
	router.GET("/ws", live.WSHandler(hub))
	tcpSrv := live.NewServer(*liveAddr, hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/debug", func(c *gin.Context) {
		stats := hub.Stats()
		c.JSON(http.StatusOK, gin.H{
			"db":          dbCfg.Path,
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	// Catalog (public reads)
	catalogRepo := catalog.NewRepo(db)
	catalogHandler := catalog.NewHandler(catalogRepo, hub)
	catalogHandler.RegisterRoutes(router.Group("/clips"))

	// Feed (public, per-viewer repeat avoidance)
	sessions := session.NewStore(cfg.Session)
	composer := feed.NewComposer(catalogRepo, sessions)
	feedHandler := feed.NewHandler(composer, catalogRepo, sessions)
	feedHandler.RegisterRoutes(router.Group("/feed"))

	// Auth
	authCfg := config.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc)
	authHandler.RegisterRoutes(router.Group("/auth"))

	seedAdmin(authRepo)

	// Protected routes
	protected := router.Group("/users")
	protected.Use(auth.AuthMiddleware(tokenSvc, authRepo))

	protected.GET("/me", func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
			"email":    claims.Email,
			"is_admin": claims.IsAdmin,
		})
	})

	// Favorites (protected)
	favRepo := favorites.NewRepo(db)
	favHandler := favorites.NewHandler(favRepo, catalogRepo)
	favHandler.RegisterRoutes(protected)

	// Reports: filing is protected, the queue is admin-only
	reportRepo := reports.NewRepo(db)
	reportHandler := reports.NewHandler(reportRepo, catalogRepo)
	reportHandler.RegisterRoutes(protected)

	admin := router.Group("/admin")
	admin.Use(auth.AuthMiddleware(tokenSvc, authRepo), auth.RequireAdmin())
	reportHandler.RegisterAdminRoutes(admin)
	authHandler.RegisterAdminRoutes(admin)
	catalogHandler.RegisterAdminRoutes(admin.Group("/clips"))

	httpSrv := &http.Server{
		Addr:    *httpAddr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", *httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("tcp shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}

// seedAdmin promotes the account named by CLIPHUB_ADMIN_EMAIL, when set. The
// account must already exist; a miss is only logged.
func seedAdmin(repo *auth.Repo) {
	email := os.Getenv("CLIPHUB_ADMIN_EMAIL")
	if email == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := repo.PromoteAdmin(ctx, email); err != nil {
		log.Printf("admin seed: %v", err)
		return
	}
	log.Printf("admin seed: %s promoted", email)
}
