package config

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Render formats settings as yaml, toml or json.
func Render(settings map[string]interface{}, format string) ([]byte, error) {
	switch format {
	case "", "yaml", "yml":
		return yaml.Marshal(settings)
	case "toml":
		return toml.Marshal(settings)
	case "json":
		out, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want yaml, toml or json)", format)
	}
}
