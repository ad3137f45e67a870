package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	AWS      AWSConfig
	Meet     MeetConfig
	Portal   PortalConfig
	Session  SessionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000)
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/campusmeet?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and the recordings archive bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	RecordingsBucket     string
	PresignExpireMinutes int
}

// MeetConfig holds the remote conferencing server API settings.
type MeetConfig struct {
	ServerURL        string // API root, e.g. https://meet.example.com/bigbluebutton/api
	SharedSecret     string
	PresentationName string // default slide deck used when a meeting is created
	PresentationURL  string
}

// PortalConfig holds the LMS frontend URLs used for browser redirects.
type PortalConfig struct {
	BaseURL       string // e.g. https://lms.example.com
	DashboardPath string
	SettingsPath  string
	CoursePath    string
}

// SessionConfig holds the view-session cache settings.
type SessionConfig struct {
	TTLHours int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// DashboardURL returns the absolute URL of the LMS dashboard page.
func (c PortalConfig) DashboardURL() string { return c.BaseURL + c.DashboardPath }

// SettingsURL returns the absolute URL of the plugin admin settings page.
func (c PortalConfig) SettingsURL() string { return c.BaseURL + c.SettingsPath }

// CourseURL returns the absolute URL of a course page.
func (c PortalConfig) CourseURL(courseID string) string {
	return c.BaseURL + c.CoursePath + "?id=" + courseID
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	jwtExpire, _ := strconv.Atoi(getEnv("JWT_EXPIRE_HOURS", "24"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", "postgres://localhost:5432/campusmeet?sslmode=disable"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "campusmeet"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: jwtExpire,
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			RecordingsBucket:     getEnv("AWS_S3_RECORDINGS_BUCKET", "campusmeet-recordings"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Meet: MeetConfig{
			ServerURL:        strings.TrimRight(getEnv("MEET_SERVER_URL", "http://localhost/bigbluebutton/api"), "/"),
			SharedSecret:     getEnv("MEET_SHARED_SECRET", ""),
			PresentationName: getEnv("MEET_PRESENTATION_NAME", ""),
			PresentationURL:  getEnv("MEET_PRESENTATION_URL", ""),
		},
		Portal: PortalConfig{
			BaseURL:       strings.TrimRight(getEnv("PORTAL_BASE_URL", "http://localhost:3000"), "/"),
			DashboardPath: getEnv("PORTAL_DASHBOARD_PATH", "/my"),
			SettingsPath:  getEnv("PORTAL_SETTINGS_PATH", "/admin/settings/meetroom"),
			CoursePath:    getEnv("PORTAL_COURSE_PATH", "/course/view"),
		},
		Session: SessionConfig{
			TTLHours: getEnvInt("VIEW_SESSION_TTL_HOURS", 12),
		},
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
