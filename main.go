package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"milkrun-backend/cache"
	"milkrun-backend/config"
	"milkrun-backend/controllers"
	"milkrun-backend/database"
	"milkrun-backend/logger"
	"milkrun-backend/middlewares"
	"milkrun-backend/routes"
	"milkrun-backend/services"
)

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	// The .env file must be in the environment before anything reads
	// config (logger level, tunables, DB credentials). Optional outside
	// local development; real environment variables win either way.
	_ = godotenv.Load()

	log := logger.New()
	defer log.Sync()

	cfg := config.Load()

	// ---- Database
	database.Connect()
	database.AutoMigrate()
	if err := database.Harden(); err != nil {
		log.Fatal("database hardening failed", zap.Error(err))
	}

	// ---- OTP store: redis when configured, in-memory otherwise
	var otpStore cache.OTPStore
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		store, err := cache.NewRedisOTPStore(addr, os.Getenv("REDIS_PASSWORD"), envInt("REDIS_DB", 0))
		if err != nil {
			log.Fatal("redis connection failed", zap.Error(err))
		}
		otpStore = store
		log.Info("otp store: redis", zap.String("addr", addr))
	} else {
		mem := cache.NewMemoryOTPStore()
		defer mem.Close()
		otpStore = mem
		log.Info("otp store: in-memory")
	}

	// ---- Services
	otp := &services.OTPService{Store: otpStore, Sender: services.NewSMSSender(log), Cfg: cfg, Log: log}
	gen := &services.RouteGenerator{DB: database.DB, Cfg: cfg, Log: log}
	bill := &services.Biller{DB: database.DB, Cfg: cfg, Log: log}
	exp := &services.Expander{DB: database.DB, Log: log}
	status := &services.StatusUpdater{DB: database.DB, Log: log}

	controllers.Init(cfg, log, otp, gen, bill, exp, status)

	// ---- Scheduler
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if cfg.SchedulerEnabled {
		sched := services.NewScheduler(cfg, log, gen, bill, exp)
		sched.Start(schedCtx)
		defer sched.Stop()
	}

	// ---- Limits (configurable via env)
	bodyLimitBytes := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimitBytes <= 0 {
		bodyLimitBytes = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    bodyLimitBytes,
	})

	// ---- CORS
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))

	// ---- Global rate limiter
	rlMax := envInt("RATE_LIMIT_MAX", 60)
	rlWindow := time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
	app.Use(limiter.New(limiter.Config{
		Max:        rlMax,
		Expiration: rlWindow,
	}))

	// ---- Routes
	routes.Register(app)

	// ---- Start, stop cleanly on SIGINT/SIGTERM
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("shutting down")
		schedCancel()
		_ = app.Shutdown()
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info("starting api server", zap.String("port", port))
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
