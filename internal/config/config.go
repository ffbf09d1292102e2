package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"user_portal/internal/notify"
)

type Config struct {
	Port  string `env:"PORT" envDefault:"5555"`
	DBURI string `env:"DB_URI"`
	DB    struct {
		Host     string `env:"HOST"`
		Port     string `env:"PORT" envDefault:"5432"`
		User     string `env:"USER" envDefault:"postgres"`
		Password string `env:"PASSWORD" envDefault:"password"`
		Name     string `env:"NAME" envDefault:"user_portal"`
		SSLMode  string `env:"SSLMODE" envDefault:"disable"`
		TimeZone string `env:"TIMEZONE" envDefault:"UTC"`
	} `envPrefix:"DB_"`
	UploadFolder string `env:"UPLOAD_FOLDER" envDefault:"./uploads"`
	JWT          struct {
		Secret          string `env:"SECRET" envDefault:"supersecret"`
		ExpirationHours int    `env:"EXPIRATION_HOURS" envDefault:"72"`
	} `envPrefix:"JWT_"`
	Log struct {
		File  string `env:"FILE" envDefault:"./logs/app.log"`
		Level string `env:"LEVEL" envDefault:"debug"`
	} `envPrefix:"LOG_"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	SMTP               struct {
		Host     string `env:"HOST"`
		Port     int    `env:"PORT" envDefault:"465"`
		Username string `env:"USERNAME"`
		Password string `env:"PASSWORD"`
		From     string `env:"FROM"`
	} `envPrefix:"SMTP_"`
	InitialAdmin struct {
		Email     string `env:"EMAIL"`
		Password  string `env:"PASSWORD"`
		Firstname string `env:"FIRSTNAME" envDefault:"Admin"`
		Lastname  string `env:"LASTNAME" envDefault:"User"`
	} `envPrefix:"INITIAL_ADMIN_"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}
	return cfg, nil
}

// PostgresDSN builds a key/value DSN from the DB_* variables.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DB.Host, c.DB.User, quoteDSNValue(c.DB.Password), c.DB.Name, c.DB.Port, c.DB.SSLMode, c.DB.TimeZone,
	)
}

func (c *Config) JWTExpiration() time.Duration {
	return time.Duration(c.JWT.ExpirationHours) * time.Hour
}

func (c *Config) SMTPConfig() notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     c.SMTP.From,
	}
}

// quoteDSNValue single-quotes a value that is empty or holds spaces, quotes
// or backslashes.
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " '\\") {
		return v
	}
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range v {
		if r == '\'' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('\'')
	return b.String()
}
