// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// デフォルト値
const (
	DefaultDatabaseURL = "postgres://localhost:5432/?sslmode=disable"
	DefaultDBName      = "blacksheeps-guild"
	DefaultPort        = "3001"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL      string // DB_NAMEを適用済みの接続URL
	DBName           string
	DBConnectTimeout time.Duration
	StoreFallback    bool
	AutoMigrate      bool

	// Presence
	PresenceTimeout       time.Duration
	PresenceSweepInterval time.Duration

	// Rate Limit（1分あたり、クライアントIPごと）
	RateLimitGeneral int
	RateLimitWrite   int

	// Server
	ServerPort   string
	MaxBodyBytes int64

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel slog.Level
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込むが、既存の環境変数は上書きしない。
// 値が不正な場合はすべての問題をまとめたエラーを返す。
func Load() (*Config, error) {
	// .envは任意。コンテナではenvironmentから渡される。
	_ = godotenv.Load()

	env := &envReader{}
	cfg := &Config{
		DBName:                env.getString("DB_NAME", DefaultDBName),
		DBConnectTimeout:      env.getDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		StoreFallback:         env.getBool("STORE_FALLBACK", true),
		AutoMigrate:           env.getBool("AUTO_MIGRATE", true),
		PresenceTimeout:       env.getDuration("PRESENCE_TIMEOUT", 30*time.Second),
		PresenceSweepInterval: env.getDuration("PRESENCE_SWEEP_INTERVAL", 10*time.Second),
		RateLimitGeneral:      env.getInt("RATE_LIMIT_GENERAL", 300),
		RateLimitWrite:        env.getInt("RATE_LIMIT_WRITE", 30),
		ServerPort:            env.getString("PORT", DefaultPort),
		MaxBodyBytes:          env.getInt64("MAX_BODY_BYTES", 65536),
		CORSAllowedOrigin:     env.getString("CORS_ALLOWED_ORIGIN", "*"),
	}

	databaseURL, err := resolveDatabaseURL(env.getString("DATABASE_URL", DefaultDatabaseURL), cfg.DBName)
	if err != nil {
		env.errs = append(env.errs, err)
	}
	cfg.DatabaseURL = databaseURL

	if err := cfg.LogLevel.UnmarshalText([]byte(env.getString("LOG_LEVEL", "info"))); err != nil {
		env.errs = append(env.errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	env.errs = append(env.errs, cfg.validate()...)
	if len(env.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(env.errs...))
	}
	return cfg, nil
}

// Addr はHTTPサーバーのリッスンアドレスを返す。
func (c *Config) Addr() string {
	return ":" + c.ServerPort
}

func (c *Config) validate() []error {
	var errs []error

	if port, err := strconv.Atoi(c.ServerPort); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a number between 1 and 65535, got %q", c.ServerPort))
	}
	positive := map[string]time.Duration{
		"DB_CONNECT_TIMEOUT":      c.DBConnectTimeout,
		"PRESENCE_TIMEOUT":        c.PresenceTimeout,
		"PRESENCE_SWEEP_INTERVAL": c.PresenceSweepInterval,
	}
	for key, d := range positive {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", key, d))
		}
	}
	if c.PresenceSweepInterval >= c.PresenceTimeout {
		errs = append(errs, fmt.Errorf("PRESENCE_SWEEP_INTERVAL (%s) must be shorter than PRESENCE_TIMEOUT (%s)",
			c.PresenceSweepInterval, c.PresenceTimeout))
	}
	if c.RateLimitGeneral <= 0 || c.RateLimitWrite <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_GENERAL and RATE_LIMIT_WRITE must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes))
	}
	return errs
}

// resolveDatabaseURL は接続URLを検証し、データベース名が含まれていなければdbNameを補う。
func resolveDatabaseURL(raw, dbName string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("DATABASE_URL must use the postgres scheme, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("DATABASE_URL must include a host")
	}
	if strings.Trim(u.Path, "/") == "" {
		u.Path = "/" + dbName
	}
	return u.String(), nil
}

// envReader は環境変数を型変換しながら読み込み、変換エラーを蓄積する。
type envReader struct {
	errs []error
}

func (r *envReader) getString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func (r *envReader) getInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return defaultVal
	}
	return i
}

func (r *envReader) getInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return defaultVal
	}
	return i
}

func (r *envReader) getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be a duration such as 30s, got %q", key, v))
		return defaultVal
	}
	return d
}

func (r *envReader) getBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be a boolean, got %q", key, v))
		return defaultVal
	}
	return b
}
