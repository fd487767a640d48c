package models

import "time"

// Config represents the main configuration
type Config struct {
	HTTP   HTTPConfig   `mapstructure:"http"`
	Output OutputConfig `mapstructure:"output"`
	Lists  []FilterList `mapstructure:"lists"`
}

// HTTPConfig contains HTTP client settings for URL sources
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// OutputConfig contains compiler output settings
type OutputConfig struct {
	MaxRules int  `mapstructure:"max_rules"`
	Stats    bool `mapstructure:"stats"`
}

// FilterList is one configured source list. Source is a local path or an
// http(s) URL.
type FilterList struct {
	Name    string `mapstructure:"name"`
	Source  string `mapstructure:"source"`
	Enabled bool   `mapstructure:"enabled"`
}

// EnabledLists returns only enabled filter lists
func (c *Config) EnabledLists() []FilterList {
	var enabled []FilterList
	for _, l := range c.Lists {
		if l.Enabled {
			enabled = append(enabled, l)
		}
	}
	return enabled
}
