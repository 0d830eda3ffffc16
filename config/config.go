package config

import (
	"os"
	"time"

	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ClipFinance/route-lib/metrics"
	"github.com/ClipFinance/route-lib/routes"
	"github.com/go-playground/validator/v10"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFile is loaded when Load is called without env files. It is optional.
const DefaultEnvFile = ".env"

var validate = validator.New()

// Config is the engine configuration.
//
// Fields:
// - Network: the network every configured chain must belong to.
// - DatabaseURL: postgres connection string of the chain catalogue, optional.
// - LogLevel: logrus level name.
// - Tracker: transfer tracking options.
// - Secrets: signing keys, only read from the environment.
// - Chains: statically configured chains.
type Config struct {
	Network     types.Network       `yaml:"network" env:"ROUTE_NETWORK" validate:"required,oneof=Mainnet Testnet Devnet"`
	DatabaseURL string              `yaml:"databaseUrl" env:"ROUTE_DATABASE_URL"`
	LogLevel    string              `yaml:"logLevel" env:"ROUTE_LOG_LEVEL"`
	Tracker     TrackerConfig       `yaml:"tracker"`
	Secrets     Secrets             `yaml:"-"`
	Chains      []types.ChainConfig `yaml:"chains" validate:"dive"`
}

// TrackerConfig holds the tracker timings. Zero values select the tracker defaults.
type TrackerConfig struct {
	PollInterval time.Duration `yaml:"pollInterval" env:"ROUTE_TRACKER_POLL_INTERVAL" validate:"gte=0"`
	MaxRetries   int           `yaml:"maxRetries" env:"ROUTE_TRACKER_MAX_RETRIES" validate:"gte=0"`
	BackoffBase  time.Duration `yaml:"backoffBase" env:"ROUTE_TRACKER_BACKOFF_BASE" validate:"gte=0"`
	BackoffMax   time.Duration `yaml:"backoffMax" env:"ROUTE_TRACKER_BACKOFF_MAX" validate:"gte=0"`
}

// Secrets holds the per-platform signing keys.
type Secrets struct {
	EvmPrivateKey    string `env:"ROUTE_EVM_PRIVATE_KEY"`
	SolanaPrivateKey string `env:"ROUTE_SOLANA_PRIVATE_KEY"`
}

// Load reads the YAML file at path, then the env files, then applies
// environment overrides and validates the result.
//
// Parameters:
// - path: the YAML file, empty to configure from the environment only.
// - envFiles: dotenv files to load; DefaultEnvFile is tried when none are given.
//
// Returns:
// - *Config: the configuration with defaults applied.
// - error: an error if a file cannot be read or the configuration is invalid.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(DefaultEnvFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "failed to load env file")
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, errors.Wrap(err, "failed to load env files")
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, errors.Wrap(err, "failed to decode environment")
	}

	cfg.applySecrets()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and every chain in it.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	seen := make(map[types.Chain]bool)
	for i := range c.Chains {
		chain := &c.Chains[i]
		if err := chain.Validate(); err != nil {
			return err
		}
		if chain.Network != c.Network {
			return errors.Errorf("chain %q is on %s, config is for %s", chain.Name, chain.Network, c.Network)
		}
		if seen[chain.Chain] {
			return errors.Errorf("chain %s is configured twice", chain.Chain)
		}
		seen[chain.Chain] = true
	}
	return nil
}

// applySecrets fills missing chain keys from the platform secrets.
func (c *Config) applySecrets() {
	for i := range c.Chains {
		chain := &c.Chains[i]
		if chain.PrivateKey != "" {
			continue
		}
		chain.PrivateKey = c.PrivateKeys()[chain.Chain]
	}
}

// PrivateKeys returns the signing key of every supported chain of the network's platforms.
func (c *Config) PrivateKeys() map[types.Chain]string {
	keys := make(map[types.Chain]string)
	for _, chain := range types.Chains() {
		switch chain.Platform() {
		case types.EVM:
			if c.Secrets.EvmPrivateKey != "" {
				keys[chain] = c.Secrets.EvmPrivateKey
			}
		case types.SOLANA:
			if c.Secrets.SolanaPrivateKey != "" {
				keys[chain] = c.Secrets.SolanaPrivateKey
			}
		}
	}
	return keys
}

// TrackerOptions converts the tracker configuration for routes.
func (c *Config) TrackerOptions(logger *logrus.Logger, recorder metrics.Recorder) routes.TrackerOptions {
	return routes.TrackerOptions{
		PollInterval: c.Tracker.PollInterval,
		MaxRetries:   c.Tracker.MaxRetries,
		BackoffBase:  c.Tracker.BackoffBase,
		BackoffMax:   c.Tracker.BackoffMax,
		Logger:       logger,
		Metrics:      recorder,
	}
}

// Logger creates a logrus logger at the configured level, info by default.
func (c *Config) Logger() (*logrus.Logger, error) {
	logger := logrus.New()
	if c.LogLevel == "" {
		return logger, nil
	}

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}
	logger.SetLevel(level)
	return logger, nil
}
