package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DatabaseURL string
	DBLogLevel  string

	JWTSecret string
	JWTTTL    time.Duration

	ServerPort  string
	CORSOrigin  string
	FrontendURL string
	BodyLimitMB int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	UploadDir    string
	CookieSecure bool
	LogFormat    string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		DBHost:      v.GetString("DB_HOST"),
		DBPort:      v.GetString("DB_PORT"),
		DBUser:      v.GetString("DB_USER"),
		DBPassword:  v.GetString("DB_PASSWORD"),
		DBName:      v.GetString("DB_NAME"),
		DBSSLMode:   v.GetString("DB_SSLMODE"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		DBLogLevel:  strings.ToLower(v.GetString("DB_LOG_LEVEL")),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTTTL:    v.GetDuration("JWT_TTL"),

		ServerPort:  v.GetString("SERVER_PORT"),
		CORSOrigin:  v.GetString("CORS_ORIGIN"),
		FrontendURL: strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		BodyLimitMB: v.GetInt("BODY_LIMIT_MB"),

		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  v.GetString("GOOGLE_CALLBACK_URL"),

		UploadDir:    v.GetString("UPLOAD_DIR"),
		CookieSecure: v.GetBool("COOKIE_SECURE"),
		LogFormat:    v.GetString("LOG_FORMAT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tunilearn")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("JWT_SECRET", "secret")
	v.SetDefault("JWT_TTL", 7*24*time.Hour)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("CORS_ORIGIN", "http://localhost:3000")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("BODY_LIMIT_MB", 110)
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_CALLBACK_URL", "http://localhost:8080/api/auth/google/callback")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("LOG_FORMAT", "text")
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.JWTTTL <= 0 {
		return errors.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.UploadDir == "" {
		return errors.New("UPLOAD_DIR must not be empty")
	}
	return nil
}

// DSN returns DATABASE_URL when set, otherwise builds one from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// GoogleEnabled reports whether OAuth credentials are configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
