package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Service *svcConfig
	Watch   *watchConfig
}

type svcConfig struct {
	// Server is empty unless set; the CLI layers it over the file config.
	Server   string `envconfig:"ESTIMATOR_SERVER" default:""`
	Token    string `envconfig:"ESTIMATOR_TOKEN" default:""`
	LogLevel string `envconfig:"ESTIMATOR_LOG_LEVEL" default:"info"`
}

type watchConfig struct {
	// PollInterval is the pull-channel fetch interval used after a push
	// channel failover.
	PollInterval time.Duration `envconfig:"ESTIMATOR_POLL_INTERVAL" default:"3s"`
	// CommandTimeout bounds every workflow command call.
	CommandTimeout time.Duration `envconfig:"ESTIMATOR_COMMAND_TIMEOUT" default:"10s"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}
