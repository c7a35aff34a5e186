package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/mkrupp/followgraph/internal/infra/config"
)

type testConfig struct {
	EnvConfig

	StringValue   string        `env:"STRING_VALUE" default:"default"`
	IntValue      int           `env:"INT_VALUE" default:"42"`
	BoolValue     bool          `env:"BOOL_VALUE" default:"true"`
	FloatValue    float64       `env:"FLOAT_VALUE" default:"0.5"`
	DurationValue time.Duration `env:"DURATION_VALUE" default:"5s"`
	NoEnvTag      string
	Nested        testNestedConfig `envPrefix:"NESTED_"`
}

type testNestedConfig struct {
	NestedString string `env:"STRING" default:"nested-default"`
}

func defaultTestConfig() testConfig {
	return testConfig{
		StringValue:   "default",
		IntValue:      42,
		BoolValue:     true,
		FloatValue:    0.5,
		DurationValue: 5 * time.Second,
		Nested:        testNestedConfig{NestedString: "nested-default"},
	}
}

//nolint:paralleltest
func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		envVars   map[string]string
		modify    func(c *testConfig)
		wantErr   bool
	}{
		{
			name: "uses default values when env vars not set",
		},
		{
			name: "reads environment variables",
			envVars: map[string]string{
				"STRING_VALUE":   "env-value",
				"INT_VALUE":      "123",
				"BOOL_VALUE":     "false",
				"FLOAT_VALUE":    "1.25",
				"DURATION_VALUE": "250ms",
				"NESTED_STRING":  "env-nested",
			},
			modify: func(c *testConfig) {
				c.StringValue = "env-value"
				c.IntValue = 123
				c.BoolValue = false
				c.FloatValue = 1.25
				c.DurationValue = 250 * time.Millisecond
				c.Nested.NestedString = "env-nested"
			},
		},
		{
			name:      "handles namespace",
			namespace: "APP",
			envVars:   map[string]string{"APP_STRING_VALUE": "prefixed-value"},
			modify:    func(c *testConfig) { c.StringValue = "prefixed-value" },
		},
		{
			name:      "falls back through namespace levels",
			namespace: "APP_SERVICE",
			envVars:   map[string]string{"APP_INT_VALUE": "7", "NESTED_STRING": "bare"},
			modify: func(c *testConfig) {
				c.IntValue = 7
				c.Nested.NestedString = "bare"
			},
		},
		{
			name:      "prefers more specific namespace",
			namespace: "APP_SERVICE",
			envVars: map[string]string{
				"APP_STRING_VALUE":         "less-specific",
				"APP_SERVICE_STRING_VALUE": "more-specific",
			},
			modify: func(c *testConfig) { c.StringValue = "more-specific" },
		},
		{
			name:    "handles empty string values",
			envVars: map[string]string{"STRING_VALUE": ""},
			modify:  func(c *testConfig) { c.StringValue = "" },
		},
		{
			name:    "handles zero int values",
			envVars: map[string]string{"INT_VALUE": "0"},
			modify:  func(c *testConfig) { c.IntValue = 0 },
		},
		{
			name:    "fails on invalid int value",
			envVars: map[string]string{"INT_VALUE": "not-a-number"},
			wantErr: true,
		},
		{
			name:    "fails on invalid bool value",
			envVars: map[string]string{"BOOL_VALUE": "not-a-bool"},
			wantErr: true,
		},
		{
			name:    "fails on invalid duration value",
			envVars: map[string]string{"DURATION_VALUE": "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			var cfg testConfig
			err := Parse(context.Background(), &cfg, tt.namespace)

			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)

			want := defaultTestConfig()
			if tt.modify != nil {
				tt.modify(&want)
			}

			assert.Equal(t, tt.namespace, cfg.Namespace())

			cfg.EnvConfig = EnvConfig{}
			assert.Equal(t, want, cfg)
		})
	}
}

func TestParseRequiredVar(t *testing.T) {
	t.Parallel()

	cfg := &struct {
		EnvConfig

		Required string `env:"FOLLOWGRAPH_TEST_REQUIRED_UNSET"`
	}{}

	err := Parse(context.Background(), cfg, "")
	assert.ErrorIs(t, err, ErrVarNotSet)
}

func TestParseUnsupportedType(t *testing.T) {
	t.Parallel()

	cfg := &struct {
		EnvConfig

		Values []string `env:"VALUES" default:"a,b"`
	}{}

	err := Parse(context.Background(), cfg, "")
	assert.ErrorIs(t, err, ErrUnsupportedVarType)
}

func TestParseInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  any
	}{
		{name: "non-pointer config", cfg: testConfig{}},
		{name: "non-struct pointer", cfg: new(string)},
		{name: "missing EnvConfig embedding", cfg: &struct {
			Value string `env:"VALUE"`
		}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Parse(context.Background(), tt.cfg, "")
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
