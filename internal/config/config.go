package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config carries everything the server needs from the environment. The
// behavior flags exist so that the historical pipeline variants stay a
// configuration choice instead of forked code paths.
type Config struct {
	HTTPPort string
	// BaseURL overrides the origin used in derived link URLs. Empty means
	// infer it from the inbound request.
	BaseURL string

	DBType string // sqlite or postgres
	DBPath string // sqlite file path
	DBDSN  string // postgres dsn

	RedisAddr string
	// CacheCompress gzips cached payloads. Turn it off when the redis server
	// is local and CPU is tighter than memory.
	CacheCompress bool

	GeoEndpoint string

	// TrackRequireLink rejects track requests for unknown identifiers with
	// 404. The permissive variant accepted orphaned visits.
	TrackRequireLink bool
	// NavigateAfterTrack makes the interstitial page wait for the track call
	// to settle before navigating. The alternative navigates immediately and
	// lets tracking race in the background.
	NavigateAfterTrack bool
	// VisitRetention prunes visits older than this. Zero keeps them forever.
	VisitRetention time.Duration
}

func LoadConfig() *Config {
	return &Config{
		HTTPPort:           env("HTTP_PORT", "3000"),
		BaseURL:            env("BASE_URL", ""),
		DBType:             env("DB_TYPE", "sqlite"),
		DBPath:             env("DB_PATH", ".db/linktrace.db"),
		DBDSN:              env("DB_DSN", ""),
		RedisAddr:          env("REDIS_ADDR", "localhost:6379"),
		CacheCompress:      envBool("CACHE_COMPRESS", true),
		GeoEndpoint:        env("GEOIP_ENDPOINT", ""),
		TrackRequireLink:   envBool("TRACK_REQUIRE_LINK", true),
		NavigateAfterTrack: envBool("NAVIGATE_AFTER_TRACK", true),
		VisitRetention:     envDuration("VISIT_RETENTION", 0),
	}
}

// GetDb opens the configured database. TranslateError is on so that
// duplicate-key violations surface as gorm.ErrDuplicatedKey on both drivers.
func GetDb(cnf *Config) *gorm.DB {
	gc := &gorm.Config{TranslateError: true}

	switch cnf.DBType {
	case "postgres":
		db, err := gorm.Open(postgres.Open(cnf.DBDSN), gc)
		if err != nil {
			logrus.Fatalf("error connecting to postgres: %v", err)
		}
		return db
	default:
		if err := os.MkdirAll(filepath.Dir(cnf.DBPath), os.ModePerm); err != nil {
			logrus.Fatalf("error creating db directory: %v", err)
		}
		db, err := gorm.Open(sqlite.Open(cnf.DBPath), gc)
		if err != nil {
			logrus.Fatalf("error opening sqlite db: %v", err)
		}
		return db
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.Warnf("invalid bool for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.Warnf("invalid duration for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return d
}
