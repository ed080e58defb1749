package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/planday/core/metrics"
)

// Config is the root configuration of the planday binary.
type Config struct {
	Generator      GeneratorConfig  `json:"generator"`
	Corpus         CorpusConfig     `json:"corpus"`
	Evaluation     EvaluationConfig `json:"evaluation"`
	Metrics        metrics.Config   `json:"metrics"`
	MQTT           MQTTConfig       `json:"mqtt"`
	Sentry         SentryConfig     `json:"sentry"`
	CategoriesFile string           `json:"categories_file"`

	// Categories is resolved from CategoriesFile or the embedded defaults.
	Categories Categories `json:"-"`
}

// Default returns a configuration holding only default values.
func Default() (*Config, error) {
	cfg := Config{Generator: generatorDefaults()}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads a YAML or JSON file and applies K_ prefixed environment
// overrides, with "__" separating nested keys.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Config{Generator: generatorDefaults()}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	if cfg.CategoriesFile != "" && !filepath.IsAbs(cfg.CategoriesFile) {
		cfg.CategoriesFile = filepath.Join(filepath.Dir(path), cfg.CategoriesFile)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finish() error {
	c.Generator.SetDefaults()
	c.Corpus.SetDefaults()
	c.Evaluation.SetDefaults()
	c.MQTT.SetDefaults()
	if err := c.Generator.Validate(); err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	if err := c.Corpus.Validate(); err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	if err := c.Evaluation.Validate(); err != nil {
		return fmt.Errorf("evaluation: %w", err)
	}
	if c.Evaluation.Completer.Type == "mqtt" {
		if err := c.MQTT.Validate(); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	var err error
	if c.CategoriesFile != "" {
		c.Categories, err = LoadCategories(c.CategoriesFile)
	} else {
		c.Categories, err = DefaultCategories()
	}
	if err != nil {
		return fmt.Errorf("categories: %w", err)
	}
	return c.Categories.Validate(c.Generator.MaxEvents)
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
}
