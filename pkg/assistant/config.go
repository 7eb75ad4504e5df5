package assistant

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config declares the assistant's known locations and its routes.
type Config struct {
	Locations []string      `yaml:"locations"`
	Routes    []RouteConfig `yaml:"routes"`
}

// RouteConfig declares one named route: the keywords that select it and the
// retrieval settings of its pipeline. A route without keywords must be the
// default route.
type RouteConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Default  bool     `yaml:"default"`
	TopK     int      `yaml:"top_k"`
	MinScore float64  `yaml:"min_score"`
	Template string   `yaml:"template"`
}

// LoadConfig reads and validates a route configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to read config %s", path)
	}

	return ParseConfig(data)
}

// ParseConfig parses and validates a YAML route configuration.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "unable to parse config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks route names, keyword coverage and the default-route count.
func (c Config) Validate() error {
	if len(c.Routes) == 0 {
		return errors.New("at least one route is required")
	}

	names := make(map[string]bool, len(c.Routes))
	defaults := 0

	for _, route := range c.Routes {
		if route.Name == "" {
			return errors.New("route name is required")
		}
		if names[route.Name] {
			return errors.Errorf("duplicate route %q", route.Name)
		}
		names[route.Name] = true

		if route.Default {
			defaults++
			continue
		}
		if len(route.Keywords) == 0 {
			return errors.Errorf("route %q needs keywords or default", route.Name)
		}
	}

	if defaults > 1 {
		return errors.New("at most one route can be the default")
	}

	return nil
}
