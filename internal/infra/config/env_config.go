package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidConfig is returned when the provided config is not a pointer to a struct
	// that embeds EnvConfig.
	ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

	// ErrVarNotSet is returned when a required environment variable is not set and has no default.
	ErrVarNotSet = errors.New("env var not set")

	// ErrUnsupportedVarType is returned when trying to parse an environment variable
	// into an unsupported Go type.
	ErrUnsupportedVarType = errors.New("unsupported env var type")
)

//nolint:gochecknoglobals
var durationType = reflect.TypeOf(time.Duration(0))

// EnvConfig must be embedded in the root configuration struct passed to Parse.
type EnvConfig struct {
	namespace string
}

// Namespace returns the namespace the configuration was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

func findEnvConfig(cfg any) (*EnvConfig, error) {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v = v.Elem()

	for i := range v.NumField() {
		field := v.Type().Field(i)
		if field.Anonymous && field.Type == reflect.TypeOf(EnvConfig{}) {
			//nolint:forcetypeassert
			return v.Field(i).Addr().Interface().(*EnvConfig), nil
		}
	}

	return nil, ErrInvalidConfig
}

// Parse fills cfg from environment variables.
//
// cfg must be a pointer to a struct embedding EnvConfig. Fields are bound
// with `env:"NAME"` tags and may carry a `default:"..."` tag; nested structs
// extend the variable name with their `envPrefix` tag. For a namespace such
// as "GRAPH_GRAPHSVC" the variable GRAPH_GRAPHSVC_NAME is tried first, then
// GRAPH_NAME, then NAME.
//
// Supported field kinds are string, signed integers, bool, float64 and
// time.Duration.
func Parse(ctx context.Context, cfg any, namespace string) error {
	envConfig, err := findEnvConfig(cfg)
	if err != nil {
		return fmt.Errorf("find env config: %w", err)
	}

	envConfig.namespace = namespace

	return parseStruct(namespace, "", reflect.ValueOf(cfg).Elem())
}

func parseStruct(namespace, prefix string, v reflect.Value) error {
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		value := v.Field(i)

		if field.Anonymous && field.Type == reflect.TypeOf(EnvConfig{}) {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := parseStruct(namespace, prefix+field.Tag.Get("envPrefix"), value); err != nil {
				return err
			}

			continue
		}

		if err := parseField(namespace, prefix, field, value); err != nil {
			return fmt.Errorf("parse field %s: %w", field.Name, err)
		}
	}

	return nil
}

// lookupEnv tries the namespace from most to least specific.
func lookupEnv(namespace, name string) (string, bool) {
	parts := strings.Split(namespace, "_")

	for i := len(parts); i >= 0; i-- {
		key := name
		if ns := strings.Join(parts[:i], "_"); ns != "" {
			key = ns + "_" + name
		}

		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
	}

	return "", false
}

func parseField(namespace, prefix string, field reflect.StructField, value reflect.Value) error {
	envTag := field.Tag.Get("env")
	if envTag == "" {
		return nil
	}

	raw, ok := lookupEnv(namespace, prefix+envTag)
	if !ok {
		def, hasDefault := field.Tag.Lookup("default")
		if !hasDefault {
			return fmt.Errorf("%w: %s", ErrVarNotSet, prefix+envTag)
		}

		raw = def
	}

	if field.Type == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", envTag, err)
		}

		value.SetInt(int64(d))

		return nil
	}

	//nolint:exhaustive
	switch field.Type.Kind() {
	case reflect.String:
		value.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type.Bits())
		if err != nil {
			return fmt.Errorf("invalid int for %s: %w", envTag, err)
		}

		value.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %w", envTag, err)
		}

		value.SetBool(b)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid float for %s: %w", envTag, err)
		}

		value.SetFloat(f)
	default:
		return fmt.Errorf("%w: %s (%v)", ErrUnsupportedVarType, envTag, field.Type.Kind())
	}

	return nil
}
