package config

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/hoangnm/techshop/internal/log"
)

type Application struct {
	Env     string `mapstructure:"env"      json:"env"`
	LogFile string `mapstructure:"log_file" json:"log_file"`
}

type Api struct {
	BaseUrl        string `mapstructure:"base_url"        json:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" json:"timeout_seconds"`
}

type Checkout struct {
	// Amounts are whole VND, the backend's currency has no minor unit.
	FreeShippingThreshold int64 `mapstructure:"free_shipping_threshold" json:"free_shipping_threshold"`
	ShippingFlatFee       int64 `mapstructure:"shipping_flat_fee"       json:"shipping_flat_fee"`
	PointUnitValue        int64 `mapstructure:"point_unit_value"        json:"point_unit_value"`
}

type Payment struct {
	CallbackHost string `mapstructure:"callback_host" json:"callback_host"`
	CallbackPort int    `mapstructure:"callback_port" json:"callback_port"`
}

type Otel struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

type Config struct {
	Application `mapstructure:"application" json:"application"`
	Api         `mapstructure:"api"         json:"api"`
	Checkout    `mapstructure:"checkout"    json:"checkout"`
	Payment     `mapstructure:"payment"     json:"payment"`
	Otel        `mapstructure:"otel"        json:"otel"`
}

var (
	once   sync.Once
	config *Config
)

func InitConfig(c context.Context, filename string) *Config {
	cfg := Config{}
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main InitConfig").
			Str(log.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		viper.SetConfigName(filename)
		viper.AddConfigPath("./env")
		viper.AddConfigPath("$HOME/.config/techshop")
		viper.SetConfigType("yaml")
		viper.AutomaticEnv()

		viper.SetDefault("application.env", "production")
		viper.SetDefault("application.log_file", "/tmp/techshop.log")
		viper.SetDefault("api.base_url", "http://localhost:8080/api")
		viper.SetDefault("api.timeout_seconds", 30)
		viper.SetDefault("checkout.free_shipping_threshold", 2_000_000)
		viper.SetDefault("checkout.shipping_flat_fee", 30_000)
		viper.SetDefault("checkout.point_unit_value", 1_000)
		viper.SetDefault("payment.callback_host", "127.0.0.1")
		viper.SetDefault("payment.callback_port", 8811)
		viper.SetDefault("otel.host", "localhost")
		viper.SetDefault("otel.port", 4317)

		logger = logger.With().Str(log.KeyProcess, "reading config").Logger()
		logger.Info().Msg("reading config")
		err := viper.ReadInConfig()
		if err != nil {
			notFound := viper.ConfigFileNotFoundError{}
			if !errors.As(err, &notFound) {
				err = fmt.Errorf("error when reading config with error=%w", err)
				logger.Fatal().Err(err).Msg(err.Error())
			}
			logger.Warn().Msg("no config file found, running on defaults")
		} else {
			logger.Info().Msg("read config")
		}

		logger = logger.With().Str(log.KeyProcess, "unmarshaling config").Logger()
		logger.Info().Msg("unmarshaling config")
		err = viper.Unmarshal(&cfg)
		if err != nil {
			err = fmt.Errorf("error unmarshaling config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger = logger.With().Any(log.KeyConfig, cfg).Logger()
		logger.Info().Msg("unmarshaled config")
	})
	return config
}
