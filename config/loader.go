package config

import (
	"errors"
	"os"
	"strings"

	"github.com/datazip-inc/tap-hubspot/constants"
	"github.com/datazip-inc/tap-hubspot/logger"
	"github.com/datazip-inc/tap-hubspot/utils"
	"github.com/spf13/viper"
)

// Loader gathers raw settings from config files, an optional .env file and the process
// environment. Precedence, lowest first: schema defaults, config files in the order
// given, .env (only when ENV is passed as a config), TAP_HUBSPOT_* variables.
type Loader struct {
	paths      []string
	dotEnvPath string
}

// NewLoader accepts the values of every --config flag; the literal ENV enables .env
func NewLoader(paths ...string) *Loader {
	return &Loader{
		paths:      paths,
		dotEnvPath: constants.DotEnvFile,
	}
}

// WithDotEnv overrides the location of the .env file
func (l *Loader) WithDotEnv(path string) *Loader {
	l.dotEnvPath = path
	return l
}

func (l *Loader) Load() (Settings, error) {
	raw, err := l.Raw()
	if err != nil {
		return Settings{}, err
	}

	return Resolve(raw)
}

// Raw returns the merged, unparsed value of every setting found in any source
func (l *Loader) Raw() (map[string]any, error) {
	v := viper.New()
	// viper lowercases nested keys and stream map property names are case sensitive,
	// so object settings bypass it
	objects := map[string]any{}
	useDotEnv := false

	for _, path := range l.paths {
		if path == constants.ConfigFromEnv {
			useDotEnv = true
			continue
		}

		values := map[string]any{}
		if err := utils.UnmarshalFile(path, &values); err != nil {
			return nil, ConfigurationError.Wrap(err, "failed to read config %s", path)
		}

		for key, value := range values {
			setting, found := Lookup(key)
			if !found {
				logger.Warnf("ignoring unknown setting %s in %s", key, path)
				delete(values, key)
				continue
			}
			if setting.Kind == KindObject {
				objects[key] = value
				delete(values, key)
			}
		}

		if err := v.MergeConfigMap(values); err != nil {
			return nil, ConfigurationError.Wrap(err, "failed to merge config %s", path)
		}
	}

	if useDotEnv {
		dotenv, err := l.readDotEnv()
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(dotenv); err != nil {
			return nil, ConfigurationError.Wrap(err, "failed to merge %s", l.dotEnvPath)
		}
	}

	for _, setting := range Schema {
		if err := v.BindEnv(setting.Name, setting.EnvVar()); err != nil {
			return nil, ConfigurationError.Wrap(err, "failed to bind %s", setting.EnvVar())
		}
	}

	raw := map[string]any{}
	for _, setting := range Schema {
		if setting.Kind == KindObject {
			if value, found := objects[setting.Name]; found {
				raw[setting.Name] = value
			}
			// environment and .env carry objects as JSON text, which viper leaves untouched
			if value := v.GetString(setting.Name); value != "" {
				raw[setting.Name] = value
			}
			continue
		}

		if v.IsSet(setting.Name) {
			raw[setting.Name] = v.Get(setting.Name)
		}
	}

	return raw, nil
}

// readDotEnv maps TAP_HUBSPOT_* entries of the .env file to setting names
func (l *Loader) readDotEnv() (map[string]any, error) {
	if _, err := os.Stat(l.dotEnvPath); errors.Is(err, os.ErrNotExist) {
		logger.Debugf("no %s file found, using process environment only", l.dotEnvPath)
		return map[string]any{}, nil
	}

	reader := viper.New()
	reader.SetConfigFile(l.dotEnvPath)
	reader.SetConfigType("env")
	if err := reader.ReadInConfig(); err != nil {
		return nil, ConfigurationError.Wrap(err, "failed to read %s", l.dotEnvPath)
	}

	values := map[string]any{}
	for _, setting := range Schema {
		// dotenv keys are lowercased by viper
		key := strings.ToLower(setting.EnvVar())
		if reader.IsSet(key) {
			if value := reader.GetString(key); value != "" {
				values[setting.Name] = value
			}
		}
	}

	return values, nil
}
