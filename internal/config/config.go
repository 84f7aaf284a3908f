package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr       string
	CORSOrigin string
	// Redis Configuration
	RedisURL         string
	ContentKey       string
	VersionKeyPrefix string
	// Meilisearch Configuration - search disabled when URL is empty
	MeiliURL       string
	MeiliMasterKey string
	// MinIO Configuration - asset uploads disabled when endpoint is empty
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	// Editing behavior
	AutosaveDebounce time.Duration
	PresenceThrottle time.Duration
	LockTTL          time.Duration
}

func Load() Config {
	return Config{
		Addr:             getenv("API_ADDR", ":8788"),
		CORSOrigin:       getenv("STUDIO_CORS_ORIGIN", "*"),
		RedisURL:         getenv("REDIS_URL", "redis://localhost:6379/0"),
		ContentKey:       getenv("STUDIO_CONTENT_KEY", "studio-content-items"),
		VersionKeyPrefix: getenv("STUDIO_VERSION_KEY_PREFIX", "studio-content-versions"),
		MeiliURL:         getenv("MEILI_URL", ""),
		MeiliMasterKey:   getenv("MEILI_MASTER_KEY", ""),
		MinioEndpoint:    getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey:   getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:   getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:      getenv("MINIO_BUCKET", "studio-assets"),
		MinioUseSSL:      getenv("MINIO_USE_SSL", "") == "true",
		AutosaveDebounce: time.Duration(getenvInt("STUDIO_AUTOSAVE_DEBOUNCE_MS", 800)) * time.Millisecond,
		PresenceThrottle: time.Duration(getenvInt("STUDIO_PRESENCE_THROTTLE_MS", 50)) * time.Millisecond,
		LockTTL:          time.Duration(getenvInt("STUDIO_LOCK_TTL_SECONDS", 30)) * time.Second,
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
