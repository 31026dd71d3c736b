package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"ffstats/pkg/fpl"
	"ffstats/pkg/token"
	"ffstats/pkg/warehouse"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// Auto-load ./.env if present (no external dependency) before reading vars
	loadDotEnv()
	cfg := loadConfig()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	// Support a lightweight migrate command: `./ffstats migrate`
	// It runs AutoMigrate then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		db := initDB(cfg)
		migrate(db)
		fmt.Println("migration completed")
		return
	}

	db := initDB(cfg)

	var wh *warehouse.Client
	if cfg.WarehouseDSN != "" {
		var err error
		wh, err = warehouse.Open(cfg.WarehouseDSN)
		if err != nil {
			logger.WithError(err).Fatal("warehouse connection failed")
		}
	} else {
		logger.Warn("WAREHOUSE_DSN not set; players and teams endpoints disabled")
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("invalid REDIS_URL")
		}
		cache = redis.NewClient(opts)
		if err := cache.Ping(context.Background()).Err(); err != nil {
			logger.WithError(err).Fatal("redis connection failed")
		}
	} else {
		logger.Warn("REDIS_URL not set; manager history cache disabled")
	}

	issuer := token.NewIssuer([]byte(cfg.JWTSecret))
	s := &server{
		db:        db,
		auth:      NewAuthService(db, issuer, logger),
		warehouse: wh,
		fpl:       fpl.New(cfg.FPLBaseURL, cache, managerCacheTTL, logger),
		log:       logger,
		startedAt: time.Now(),
	}

	r := gin.New()
	r.Use(gin.Logger())
	setupRoutes(r, s)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.WithField("port", cfg.Port).Info("fantasy football API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("forced shutdown")
	}
}

// loadDotEnv loads key=value pairs from a local .env file into the environment
// without overwriting variables that are already set. Lines starting with # are ignored.
func loadDotEnv() {
	path := ".env"
	if _, err := os.Stat(path); err != nil {
		return // no .env file
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.TrimSpace(line[eq+1:])
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
