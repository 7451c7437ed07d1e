package mssql

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds SQL Server-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Encrypt controls connection encryption: "true", "false", or
	// "strict". Empty defaults to "false" for local development servers.
	Encrypt string `mapstructure:"encrypt"`

	// TrustServerCertificate skips certificate validation when
	// encryption is on. Useful against dev containers with self-signed
	// certificates.
	TrustServerCertificate bool `mapstructure:"trust_server_certificate"`

	// AppName is reported to the server for session diagnostics.
	AppName string `mapstructure:"app_name"`
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
