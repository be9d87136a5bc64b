package gateway

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/relaymesh/gateway/schemas"
	"github.com/relaymesh/gateway/tokens"
)

// DefaultPriceInputPerMillion and DefaultPriceOutputPerMillion are the
// registry's configured default-per-million-tokens prices applied to a
// refreshed model that declares no pricing of its own (§4.4 step 2):
// output defaults to 2x input, matching the source's convention that
// completion tokens cost more than prompt tokens.
const (
	DefaultPriceInputPerMillion  = 1.0
	DefaultPriceOutputPerMillion = 2.0
	DefaultContextWindow         = 8192
)

// GatewayConfig is the root construction record for a Facade (C10). It is
// validated with struct tags via go-playground/validator and may be loaded
// from YAML via LoadConfigFile.
type GatewayConfig struct {
	Logger schemas.Logger `yaml:"-" validate:"-"`

	LogLevel schemas.LogLevel `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`

	DefaultWeights schemas.Weights `yaml:"defaultWeights"`

	WeightProfiles map[string]schemas.Weights `yaml:"weightProfiles"`

	DefaultContext  map[string]interface{} `yaml:"defaultContext"`
	DefaultMetadata schemas.Metadata        `yaml:"defaultMetadata"`

	Overrides []ModelOverrideConfig `yaml:"overrides"`

	TokenTuning tokens.Tuning `yaml:"tokenTuning"`

	DefaultInputPricePerMillion  float64 `yaml:"defaultInputPricePerMillion" validate:"gte=0"`
	DefaultOutputPricePerMillion float64 `yaml:"defaultOutputPricePerMillion" validate:"gte=0"`
	DefaultContextWindow         int     `yaml:"defaultContextWindow" validate:"gte=0"`
}

// ModelOverrideConfig is the YAML-friendly declaration of a ModelOverride
// matcher plus a raw overrides payload, deep-merged into matching models
// on registration (§4.1).
type ModelOverrideConfig struct {
	Provider     string                 `yaml:"provider,omitempty"`
	ModelID      string                 `yaml:"modelId,omitempty"`
	ModelPattern string                 `yaml:"modelPattern,omitempty"`
	Overrides    map[string]interface{} `yaml:"overrides"`
}

// DefaultGatewayConfig returns a GatewayConfig with every numeric default
// from §4.3's weight fallback and §4.4's refresh defaults populated.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		LogLevel:                     schemas.LogLevelInfo,
		DefaultWeights:               schemas.DefaultWeights,
		TokenTuning:                  tokens.DefaultTuning(),
		DefaultInputPricePerMillion:  DefaultPriceInputPerMillion,
		DefaultOutputPricePerMillion: DefaultPriceOutputPerMillion,
		DefaultContextWindow:         DefaultContextWindow,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks GatewayConfig's struct tags; there are no cross-field
// checks.
func (c *GatewayConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return schemas.NewGatewayError(schemas.ErrorKindValidationFailed, "", err.Error(), err)
	}
	return nil
}

// LoadConfigFile reads a YAML GatewayConfig from path over
// DefaultGatewayConfig, so fields the file omits keep their defaults (a
// field the file sets explicitly, even to zero, replaces the default), and
// validates the result.
func LoadConfigFile(path string) (GatewayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GatewayConfig{}, schemas.NewGatewayError(schemas.ErrorKindRegistryError, "", "reading config file", err)
	}
	cfg := DefaultGatewayConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return GatewayConfig{}, schemas.NewGatewayError(schemas.ErrorKindValidationFailed, "", "parsing config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return GatewayConfig{}, err
	}
	return cfg, nil
}
