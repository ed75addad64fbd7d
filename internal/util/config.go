package util

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//nolint:gochecknoglobals // here its ok
var once sync.Once

func init() {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
}

const (
	defaultServerAddr      = "localhost:8080"
	defaultWriteTimeout    = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultGracefulTimeout = 5 * time.Second

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour

	defaultMaxSessions      = 5
	defaultMaxRefreshTokens = 5

	defaultGoogleIssuer  = "https://accounts.google.com"
	defaultAuthTimeout   = 10 * time.Second
	defaultJWTIssuer     = "draglane"
	SessionIDRandomBytes = 256
	JWTLeeWay            = 5 * time.Second
)

type ServerConfig struct {
	ServerAddr      string
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
}

func NewServerConfig() *ServerConfig {
	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = defaultServerAddr
	}

	return &ServerConfig{
		ServerAddr:      addr,
		WriteTimeout:    parseDurationOrDefault("WRITE_TIMEOUT", defaultWriteTimeout),
		ReadTimeout:     parseDurationOrDefault("READ_TIMEOUT", defaultReadTimeout),
		IdleTimeout:     parseDurationOrDefault("IDLE_TIMEOUT", defaultIdleTimeout),
		GracefulTimeout: parseDurationOrDefault("GRACEFUL_TIMEOUT", defaultGracefulTimeout),
	}
}

type TokenConfig struct {
	JwtSecretKey []byte
	Issuer       string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

func NewTokenConfig() *TokenConfig {
	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		log.Fatal("JWT_SECRET_KEY is not set")
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = defaultJWTIssuer
	}

	return &TokenConfig{
		JwtSecretKey: []byte(secret),
		Issuer:       issuer,
		AccessTTL:    parseDurationOrDefault("JWT_ACCESS_TOKEN_TTL", defaultAccessTTL),
		RefreshTTL:   parseDurationOrDefault("JWT_REFRESH_TOKEN_TTL", defaultRefreshTTL),
	}
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	IssuerURL    string
	Timeout      time.Duration
}

func NewGoogleConfig() *GoogleConfig {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Fatal("GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET is not set")
	}

	issuerURL := os.Getenv("GOOGLE_ISSUER_URL")
	if issuerURL == "" {
		issuerURL = defaultGoogleIssuer
	}

	return &GoogleConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		IssuerURL:    issuerURL,
		Timeout:      parseDurationOrDefault("GOOGLE_AUTH_TIMEOUT", defaultAuthTimeout),
	}
}

// CredentialConfig bounds the per-account credential fan-out.
type CredentialConfig struct {
	MaxSessions      int
	MaxRefreshTokens int
}

func NewCredentialConfig() *CredentialConfig {
	return &CredentialConfig{
		MaxSessions:      parseIntOrDefault("MAX_SESSIONS", defaultMaxSessions),
		MaxRefreshTokens: parseIntOrDefault("MAX_REFRESH_TOKENS", defaultMaxRefreshTokens),
	}
}

func parseIntOrDefault(varName string, def int) int {
	if v := os.Getenv(varName); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Invalid integer in %s: %s, using default %d", varName, v, def)
	}
	return def
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid duration in %s: %s, using default %s", varName, v, def)
	}
	return def
}
