package config

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server     Server
	Database   Database
	Redis      Redis
	Log        Log
	Assessment Assessment
	JWTSecret  string
	Gemini     Gemini
}

type Server struct {
	Port    string
	GinMode string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds the postgres connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type Redis struct {
	Addr            string
	Password        string
	DB              int
	CacheTTLSeconds int
}

type Log struct {
	Level  string
	Format string
}

type Assessment struct {
	CertificateValidityDays int
	AttemptGraceSeconds     int
}

type Gemini struct {
	APIKey string
	Model  string
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_TTL_SECONDS", 300)
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("CERTIFICATE_VALIDITY_DAYS", 0)
	viper.SetDefault("ATTEMPT_GRACE_SECONDS", 30)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Server.GinMode = viper.GetString("GIN_MODE")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")

	config.Redis.Addr = viper.GetString("REDIS_ADDR")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")
	config.Redis.CacheTTLSeconds = viper.GetInt("CACHE_TTL_SECONDS")

	config.Log.Level = viper.GetString("LOG_LEVEL")
	config.Log.Format = viper.GetString("LOG_FORMAT")

	config.Assessment.CertificateValidityDays = viper.GetInt("CERTIFICATE_VALIDITY_DAYS")
	config.Assessment.AttemptGraceSeconds = viper.GetInt("ATTEMPT_GRACE_SECONDS")

	config.JWTSecret = viper.GetString("JWT_SECRET")
	config.Gemini.APIKey = viper.GetString("GEMINI_API_KEY")
	config.Gemini.Model = viper.GetString("GEMINI_MODEL")

	if config.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set. Every authenticated request will be rejected.")
	}

	log.Info().Interface("config", config.masked()).Msg("Config loaded")
	return &config, nil
}

// masked returns a copy that is safe to log.
func (c Config) masked() Config {
	out := c
	if out.Database.Password != "" {
		out.Database.Password = "***"
	}
	if out.Redis.Password != "" {
		out.Redis.Password = "***"
	}
	if out.JWTSecret != "" {
		out.JWTSecret = "***"
	}
	if out.Gemini.APIKey != "" {
		out.Gemini.APIKey = "***"
	}
	return out
}
