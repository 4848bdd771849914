package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const prefix = "EARTHSENTINEL"

var conf Config

// Parse reads the configuration file given as parameter.
func Parse(confFile string) (*Config, error) {
	setDefault()

	viper.SetEnvPrefix(prefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if len(confFile) > 0 {
		viper.SetConfigFile(confFile)

		err := viper.ReadInConfig()
		if err != nil {
			return &conf, fmt.Errorf("failed to read config file %v: %w", confFile, err)
		}
	}

	err := viper.Unmarshal(&conf)
	if err != nil {
		return &conf, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &conf, nil
}

// BackendConfig returns the remote backend configuration.
func BackendConfig() Backend {
	return conf.Backend
}

func setDefault() {
	viper.SetDefault("logs.level", 4)
	viper.SetDefault("logs.encoder", EncoderTypeConsole)
	viper.SetDefault("gracefulDuration", "5s")
	viper.SetDefault("defaultTimeout", "8s")
	viper.SetDefault("metrics.port", 7777)
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("backend.baseURL", "http://localhost:5000/api")
	viper.SetDefault("backend.probe.attempts", 5)
	viper.SetDefault("backend.probe.delay", "2s")
	viper.SetDefault("poll.interval", "30s")
	viper.SetDefault("poll.historyLimit", 20)
	viper.SetDefault("simulation.defaultType", "fire")
	viper.SetDefault("simulation.defaultLocation.lat", -23.5505)
	viper.SetDefault("simulation.defaultLocation.lon", -46.6333)
	viper.SetDefault("simulation.defaultLocation.address", "São Paulo Emergency Zone")
}
