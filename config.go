package main

import (
	"log"
	"os"
	"time"
)

const (
	// Access tokens are what the SPA holds for request auth.
	accessTokenTTL = 7 * 24 * time.Hour
	// Remember-me refresh tokens embed the extended expiry.
	rememberMeTokenTTL = 30 * 24 * time.Hour
	// Session rows always get the 30-day horizon, whatever the token says.
	sessionTTL = 30 * 24 * time.Hour

	// Manager history barely changes between gameweeks; a short cache keeps
	// us from hammering the public FPL API.
	managerCacheTTL = 5 * time.Minute

	defaultFPLBaseURL = "https://fantasy.premierleague.com/api"
)

type Config struct {
	Port         string
	DBDSN        string
	JWTSecret    string
	WarehouseDSN string
	RedisURL     string
	FPLBaseURL   string
	AutoMigrate  bool
}

func loadConfig() Config {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set; refusing to issue unsigned tokens")
	}
	autoMigrate := true
	switch os.Getenv("DB_AUTO_MIGRATE") {
	case "false", "0", "no":
		autoMigrate = false
	}
	return Config{
		Port:         getenv("PORT", "3001"),
		DBDSN:        os.Getenv("DB_DSN"),
		JWTSecret:    secret,
		WarehouseDSN: os.Getenv("WAREHOUSE_DSN"),
		RedisURL:     os.Getenv("REDIS_URL"),
		FPLBaseURL:   getenv("FPL_BASE_URL", defaultFPLBaseURL),
		AutoMigrate:  autoMigrate,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
