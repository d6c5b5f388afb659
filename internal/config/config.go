// Package config loads Grosharing settings from GROSHARING_* environment
// variables. An optional .env file in the working directory is read first.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/xndadelin/Grosharing/internal/storage"
)

const prefix = "GROSHARING_"

type Server struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	JWTSecret      string
	JWTIssuer      string
	SessionTTL     time.Duration
	ProviderSecret string
	ProviderIssuer string

	CORSAllowedOrigins []string
	WSOriginPatterns   []string

	S3 storage.S3Config

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string
	ExpoHost        string
	ExpoAccessToken string

	// HousePasswords maps house name to the password applied at startup.
	HousePasswords map[string]string
}

type Client struct {
	ServerURL string
	Token     string
	LogLevel  string
}

// LoadServer reads the server configuration. The JWT and provider secrets
// are required.
func LoadServer() (Server, error) {
	_ = godotenv.Load()

	ttl, err := time.ParseDuration(getenv("SESSION_TTL", "720h"))
	if err != nil {
		return Server{}, fmt.Errorf("parse %sSESSION_TTL: %w", prefix, err)
	}

	cfg := Server{
		Port:      getenv("PORT", "8080"),
		DBPath:    getenv("DB_PATH", "grosharing.db"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "text"),

		JWTSecret:      getenv("JWT_SECRET", ""),
		JWTIssuer:      getenv("JWT_ISSUER", "grosharing"),
		SessionTTL:     ttl,
		ProviderSecret: getenv("PROVIDER_SECRET", ""),
		ProviderIssuer: getenv("PROVIDER_ISSUER", ""),

		CORSAllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "")),
		WSOriginPatterns:   splitList(getenv("WS_ORIGIN_PATTERNS", "")),

		S3: storage.S3Config{
			Endpoint:      getenv("S3_ENDPOINT", ""),
			Bucket:        getenv("S3_BUCKET", ""),
			Region:        getenv("S3_REGION", "auto"),
			AccessKey:     getenv("S3_ACCESS_KEY", ""),
			SecretKey:     getenv("S3_SECRET_KEY", ""),
			PublicBaseURL: getenv("IMAGE_BASE_URL", ""),
		},

		VAPIDPublicKey:  getenv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getenv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubscriber: getenv("VAPID_SUBSCRIBER", ""),
		ExpoHost:        getenv("EXPO_HOST", ""),
		ExpoAccessToken: getenv("EXPO_ACCESS_TOKEN", ""),
	}

	cfg.HousePasswords, err = parsePairs(getenv("HOUSE_PASSWORDS", ""))
	if err != nil {
		return Server{}, fmt.Errorf("parse %sHOUSE_PASSWORDS: %w", prefix, err)
	}

	if cfg.JWTSecret == "" {
		return Server{}, fmt.Errorf("missing env: %sJWT_SECRET", prefix)
	}
	if cfg.ProviderSecret == "" {
		return Server{}, fmt.Errorf("missing env: %sPROVIDER_SECRET", prefix)
	}
	return cfg, nil
}

// LoadClient reads the CLI configuration. Flags may override every field.
func LoadClient() Client {
	_ = godotenv.Load()

	return Client{
		ServerURL: strings.TrimRight(getenv("SERVER_URL", "http://localhost:8080"), "/"),
		Token:     getenv("TOKEN", ""),
		LogLevel:  getenv("LOG_LEVEL", "warn"),
	}
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(prefix + key))
	if v == "" {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// parsePairs parses "a=1,b=2".
func parsePairs(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range splitList(s) {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid pair %q", pair)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
