package config

import (
	"context"
	"fmt"

	"github.com/Infinity2209/user/cmd/panelctl/internal/client"
	"github.com/Infinity2209/user/pkg/sdk"
)

type contextKey string

const configKey contextKey = "panelctl-config"

// Output formats accepted by --output.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// GlobalConfig holds shared configuration for all panelctl commands.
// The root command injects it into the cobra command context.
type GlobalConfig struct {
	ServerURL      string
	Output         string
	ClientProvider *client.Provider
}

// InjectConfig adds config to the cobra command context.
func InjectConfig(ctx context.Context, cfg *GlobalConfig) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the cobra command context.
func FromContext(ctx context.Context) (*GlobalConfig, bool) {
	cfg, ok := ctx.Value(configKey).(*GlobalConfig)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics.
// Only for RunE functions, where the root command has injected it.
func MustFromContext(ctx context.Context) *GlobalConfig {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("panelctl: config not found in context - this is a bug in panelctl")
	}
	return cfg
}

// SDKClient returns the shared SDK client.
func (c *GlobalConfig) SDKClient(ctx context.Context) (*sdk.Client, error) {
	if c.ClientProvider == nil {
		return nil, fmt.Errorf("client provider not configured")
	}
	return c.ClientProvider.SDKClient(ctx)
}

// JSON reports whether --output json was requested.
func (c *GlobalConfig) JSON() bool {
	return c.Output == OutputJSON
}
