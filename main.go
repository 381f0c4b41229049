package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facilitydesk/facilitydesk/handlers"
	"github.com/facilitydesk/facilitydesk/internal/app"
	"github.com/facilitydesk/facilitydesk/internal/cities"
	"github.com/facilitydesk/facilitydesk/internal/config"
	"github.com/facilitydesk/facilitydesk/internal/media"
	"github.com/facilitydesk/facilitydesk/internal/requests"
	"github.com/facilitydesk/facilitydesk/internal/tokens"
	"github.com/facilitydesk/facilitydesk/internal/tracker"
	"github.com/facilitydesk/facilitydesk/internal/workers"
	"github.com/facilitydesk/facilitydesk/pkg/logger"
	"github.com/facilitydesk/facilitydesk/pkg/metrics"
	"github.com/facilitydesk/facilitydesk/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: store=%s media=%s tracker=%s redis=%v auth_required=%v",
		cfg.Storage.Backend, cfg.Media.Backend, cfg.Tracker.Backend, cfg.Redis.Host != "", cfg.Auth.Required)

	ctx := context.Background()
	deps, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to initialise backends: %v", err)
	}
	defer deps.Close(ctx)

	seeded, err := tracker.Seed(ctx, deps.Tracker, deps.Store)
	if err != nil {
		logger.Warnf("last-update seed failed: %v", err)
	} else {
		logger.Infof("last-update seeded for %d institution(s)", seeded)
	}

	sweeper := media.NewSweeper(deps.Media, cfg.Media.CleanupInterval)
	if err := sweeper.Start(); err != nil {
		logger.Fatalf("failed to start media cleanup: %v", err)
	}
	defer sweeper.Stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Permissive CORS: mobile and web clients call from arbitrary origins.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})
	r.Use(middleware.RequestID(), gin.Logger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when the configured backends answer
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		checks := map[string]bool{}

		if _, err := deps.Store.Institutions(c.Request.Context()); err != nil {
			checks["storage"] = false
			ready = false
		} else {
			checks["storage"] = true
		}
		if deps.Redis != nil {
			checks["redis"] = deps.Redis.Ping(c.Request.Context()).Err() == nil
			ready = ready && checks["redis"]
		} else if cfg.Tracker.Backend == "redis" || cfg.RateLimit.UseRedis {
			checks["redis"] = false
			ready = false
		}

		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": checks, "uptime": time.Since(startTime).String()})
	})

	workerSvc := workers.NewService(deps.Store)

	var loginMW []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && deps.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			loginMW = append(loginMW, middleware.RedisRateLimitMiddleware(deps.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			loginMW = append(loginMW, middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
		logger.Infof("login rate limiting enabled (rps=%.2f burst=%d)", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	handlers.NewLoginHandler(workerSvc, cfg.JWT.Secret, cfg.JWT.AccessTokenTTL).Register(r, loginMW...)

	inst := r.Group("/institutions/:institutionId")
	if cfg.Auth.Required {
		inst.Use(middleware.AuthMiddleware(tokens.NewVerifier(cfg.JWT.Secret)), middleware.InstitutionScope())
	}
	handlers.NewInstitutionHandler(requests.NewService(deps.Store), workerSvc, cities.NewService(deps.Store), deps.Tracker).Register(inst)
	handlers.NewMediaHandler(deps.Media, cfg.Server.PublicURL).Register(inst)

	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("Starting maintenance service on %s (data dir %s)", addr, cfg.Storage.DataDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	sig, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sig.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown: %v", err)
	}
}
