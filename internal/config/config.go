// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the scenario file.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/cohousing-finance/pkg/calculator"
	"github.com/iwvelando/cohousing-finance/pkg/constants"
	"github.com/iwvelando/cohousing-finance/pkg/validation"
	"github.com/spf13/viper"
)

// DateLayout is the format expected in scenario files and is also the output
// date format.
const DateLayout = constants.DateLayout

// Configuration holds a scenario together with the settings of the command
// line tool that runs it.
type Configuration struct {
	calculator.Scenario `yaml:",inline" mapstructure:",squash"`

	Logging LoggingConfig `yaml:"logging,omitempty" mapstructure:"logging"`
	Output  OutputConfig  `yaml:"output,omitempty" mapstructure:"output"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Scalar keys can be overridden from the environment,
// e.g. COHOUSING_DEEDDATE or COHOUSING_OUTPUT_FORMAT.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a configuration of the given type
// (yaml or json) from r.
func LoadConfigurationFromReader(r io.Reader, configType string) (*Configuration, error) {
	v := newViper()
	v.SetConfigType(configType)

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	warnings := c.Scenario.Validate()

	if len(c.Participants) == 0 {
		warnings = append(warnings, "scenario has no participants")
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown logging level %q, info is used", c.Logging.Level))
	}
	return warnings
}
