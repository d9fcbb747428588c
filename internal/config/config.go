/**
 * @description
 * This package handles the configuration management for the card-point-service.
 * It uses the Viper library to read settings from environment variables or a
 * local .env file. Everything here is read once at startup and never mutated.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */
package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the card-point-service.
type Config struct {
	ServerPort              string        `mapstructure:"SERVER_PORT"`
	AuthToken               string        `mapstructure:"AUTH_TOKEN"`
	UpstreamURL             string        `mapstructure:"UPSTREAM_URL"`
	UpstreamTimeout         time.Duration `mapstructure:"UPSTREAM_TIMEOUT"`
	PointType               int           `mapstructure:"POINT_TYPE"`
	CardExpMonth            string        `mapstructure:"CARD_EXP_MONTH"`
	CardExpYear             string        `mapstructure:"CARD_EXP_YEAR"`
	CardCVC                 string        `mapstructure:"CARD_CVC"`
	RabbitMQURL             string        `mapstructure:"RABBITMQ_URL"`
	LookupEventsExchange    string        `mapstructure:"LOOKUP_EVENTS_EXCHANGE"`
	CORSAllowedOrigins      []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
	CredentialCheckSchedule string        `mapstructure:"CREDENTIAL_CHECK_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables and an optional
// .env file in the given path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "3000")
	viper.SetDefault("UPSTREAM_URL", "https://sfapi.pazaramatatil.com/card/point/v2")
	viper.SetDefault("UPSTREAM_TIMEOUT", "15s")
	viper.SetDefault("POINT_TYPE", 1)
	viper.SetDefault("CARD_EXP_MONTH", "12")
	viper.SetDefault("CARD_EXP_YEAR", "2028")
	viper.SetDefault("CARD_CVC", "000")
	viper.SetDefault("LOOKUP_EVENTS_EXCHANGE", "card_point_events")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "https://*,http://*")
	viper.SetDefault("CREDENTIAL_CHECK_SCHEDULE", "@every 10m")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("AUTH_TOKEN")
	_ = viper.BindEnv("UPSTREAM_URL")
	_ = viper.BindEnv("UPSTREAM_TIMEOUT")
	_ = viper.BindEnv("POINT_TYPE")
	_ = viper.BindEnv("CARD_EXP_MONTH")
	_ = viper.BindEnv("CARD_EXP_YEAR")
	_ = viper.BindEnv("CARD_CVC")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("LOOKUP_EVENTS_EXCHANGE")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")
	_ = viper.BindEnv("CREDENTIAL_CHECK_SCHEDULE")

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.AuthToken = strings.Trim(strings.TrimSpace(config.AuthToken), "\"'")
	config.UpstreamURL = strings.TrimSpace(config.UpstreamURL)
	config.RabbitMQURL = strings.TrimSpace(config.RabbitMQURL)
	config.CORSAllowedOrigins = splitList(config.CORSAllowedOrigins)

	if config.UpstreamTimeout <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive upstream timeout; using default\" timeout=%s", config.UpstreamTimeout)
		config.UpstreamTimeout = 15 * time.Second
	}

	return
}

// splitList flattens comma separated entries, which is how list values arrive from the environment.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
