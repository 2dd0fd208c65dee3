package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerAddress   string
	JWTSecret       string
	JWTExpiration   time.Duration
	UploadDir       string
	MaxUploadSizeMB int64
	DataDir         string

	MongoURI string
	MongoDB  string

	GCSBucket             string
	GoogleCredentialsJSON string
	ImageScreening        bool

	FirebaseProjectID string

	AdminEmail    string
	AdminPassword string

	AllowedOrigins []string
}

func Load() *Config {
	return &Config{
		ServerAddress:         getEnv("SERVER_ADDRESS", ":8080"),
		JWTSecret:             getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTExpiration:         getDuration("JWT_EXPIRATION", 24*time.Hour),
		UploadDir:             getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadSizeMB:       getInt("MAX_UPLOAD_SIZE_MB", 10),
		DataDir:               getEnv("DATA_DIR", "./data"),
		MongoURI:              getEnv("MONGODB_URI", ""),
		MongoDB:               getEnv("MONGODB_DB", "opticshop"),
		GCSBucket:             getEnv("GCS_BUCKET", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		ImageScreening:        getBool("IMAGE_SCREENING", false),
		FirebaseProjectID:     getEnv("FIREBASE_PROJECT_ID", ""),
		AdminEmail:            getEnv("ADMIN_EMAIL", "admin@opticshop.local"),
		AdminPassword:         getEnv("ADMIN_PASSWORD", ""),
		AllowedOrigins:        getList("ALLOWED_ORIGINS", []string{"*"}),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int64) int64 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %v", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("Warning: invalid %s=%q, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
