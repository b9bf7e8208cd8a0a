package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/thomas-vilte/llmcost/internal/errors"
)

type Config struct {
	Language        string  `json:"language"`
	DecimalPlaces   int     `json:"decimal_places"`
	DefaultSTTModel string  `json:"default_stt_model"`
	Concurrency     int     `json:"concurrency"`
	Budget          float64 `json:"budget"`
	PathFile        string  `json:"path_file"`
}

const (
	defaultLang          = "en"
	defaultDecimalPlaces = 8
	defaultSTTModel      = "whisper-1"
	defaultConcurrency   = 4
	maxDecimalPlaces     = 20
	configDirName        = ".llmcost"
	configFileName       = "config.json"
)

// Setting names used by config set.
const (
	KeyLanguage        = "language"
	KeyDecimalPlaces   = "decimal_places"
	KeyDefaultSTTModel = "default_stt_model"
	KeyConcurrency     = "concurrency"
	KeyBudget          = "budget"
)

// Keys lists the settings accepted by Set, in display order.
var Keys = []string{KeyLanguage, KeyDecimalPlaces, KeyDefaultSTTModel, KeyConcurrency, KeyBudget}

// LoadConfig reads path when it names a .json file, otherwise
// <path>/.llmcost/config.json. A missing file is created with defaults.
func LoadConfig(path string) (*Config, error) {
	var configPath string

	if filepath.Ext(path) == ".json" {
		configPath = path
	} else {
		configDir := filepath.Join(path, configDirName)
		configPath = filepath.Join(configDir, configFileName)

		if _, err := os.Stat(configDir); os.IsNotExist(err) {
			if err := os.MkdirAll(configDir, 0755); err != nil {
				return nil, errors.ErrConfigInvalid.WithError(err).WithDetail("creating %s", configDir)
			}
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.ErrConfigInvalid.WithError(err).WithDetail("reading %s", configPath)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.ErrConfigInvalid.WithError(err).WithDetail("decoding %s", configPath)
	}
	config.PathFile = configPath

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Default returns the built-in preferences without a backing file.
func Default() *Config {
	return &Config{
		Language:        defaultLang,
		DecimalPlaces:   defaultDecimalPlaces,
		DefaultSTTModel: defaultSTTModel,
		Concurrency:     defaultConcurrency,
	}
}

func createDefaultConfig(path string) (*Config, error) {
	config := Default()
	config.PathFile = path

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.ErrConfigInvalid.WithError(err).WithDetail("creating %s", filepath.Dir(path))
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, errors.ErrConfigInvalid.WithError(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, errors.ErrConfigInvalid.WithError(err).WithDetail("writing %s", path)
	}

	return config, nil
}

func SaveConfig(config *Config) error {
	if err := validateConfig(config); err != nil {
		return err
	}

	if config.PathFile == "" {
		return errors.ErrConfigInvalid.WithDetail("config file path is not set")
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return errors.ErrConfigInvalid.WithError(err)
	}

	if err := os.WriteFile(config.PathFile, data, 0644); err != nil {
		return errors.ErrConfigInvalid.WithError(err).WithDetail("writing %s", config.PathFile)
	}

	return nil
}

// Set parses value into the setting named key. The config is left as it
// was when value is invalid.
func (c *Config) Set(key, value string) error {
	next := *c

	switch key {
	case KeyLanguage:
		next.Language = value
	case KeyDefaultSTTModel:
		next.DefaultSTTModel = value
	case KeyDecimalPlaces, KeyConcurrency:
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.ErrConfigInvalid.WithError(err).WithContext("key", key).WithDetail("%s must be an integer", key)
		}
		if key == KeyDecimalPlaces {
			next.DecimalPlaces = n
		} else {
			next.Concurrency = n
		}
	case KeyBudget:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.ErrConfigInvalid.WithError(err).WithContext("key", key).WithDetail("budget must be a number")
		}
		next.Budget = f
	default:
		return errors.ErrConfigInvalid.
			WithContext("key", key).
			WithDetail("unknown key %q", key).
			WithSuggestion(fmt.Sprintf("valid keys: %v", Keys))
	}

	if err := validateConfig(&next); err != nil {
		return err
	}
	*c = next
	return nil
}

// Get returns the setting named key formatted for display.
func (c *Config) Get(key string) (string, bool) {
	switch key {
	case KeyLanguage:
		return c.Language, true
	case KeyDecimalPlaces:
		return strconv.Itoa(c.DecimalPlaces), true
	case KeyDefaultSTTModel:
		return c.DefaultSTTModel, true
	case KeyConcurrency:
		return strconv.Itoa(c.Concurrency), true
	case KeyBudget:
		return strconv.FormatFloat(c.Budget, 'f', -1, 64), true
	}
	return "", false
}

func validateConfig(config *Config) error {
	if config.Language == "" {
		return errors.ErrConfigInvalid.WithDetail("language cannot be empty")
	}
	if config.Language != LangEN && config.Language != LangES {
		return errors.ErrConfigInvalid.
			WithContext("language", config.Language).
			WithDetail("unsupported language %q", config.Language).
			WithSuggestion("use en or es")
	}
	if config.DecimalPlaces < 0 || config.DecimalPlaces > maxDecimalPlaces {
		return errors.ErrConfigInvalid.WithDetail("decimal_places must be between 0 and %d", maxDecimalPlaces)
	}
	if config.Concurrency < 1 {
		return errors.ErrConfigInvalid.WithDetail("concurrency must be at least 1")
	}
	if config.Budget < 0 {
		return errors.ErrConfigInvalid.WithDetail("budget cannot be negative")
	}
	if config.DefaultSTTModel == "" {
		return errors.ErrConfigInvalid.WithDetail("default_stt_model cannot be empty")
	}
	return nil
}
