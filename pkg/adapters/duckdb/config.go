package duckdb

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "json", "icu")
	Extensions []string `mapstructure:"extensions"`

	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`
}

// parseParams decodes the generic params map into Params.
func parseParams(raw map[string]any) (Params, error) {
	var params Params
	if len(raw) == 0 {
		return params, nil
	}
	if err := mapstructure.Decode(raw, &params); err != nil {
		return params, fmt.Errorf("failed to decode params: %w", err)
	}
	return params, nil
}
