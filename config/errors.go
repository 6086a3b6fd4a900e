package config

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joomcode/errorx"
)

var (
	Errors = errorx.NewNamespace("tap")

	// ConfigurationError is raised for every settings problem detected before extraction
	ConfigurationError = Errors.NewType("configuration_error")

	// SettingsProperty carries the names of the offending settings
	SettingsProperty = errorx.RegisterProperty("settings")
)

func IsConfigurationError(err error) bool {
	return errorx.IsOfType(err, ConfigurationError)
}

// FailedSettings returns the setting names attached to a ConfigurationError
func FailedSettings(err error) []string {
	value, found := errorx.ExtractProperty(err, SettingsProperty)
	if !found {
		return nil
	}
	names, _ := value.([]string)
	return names
}

// problems collects per-setting failures so they are reported together
type problems struct {
	settings []string
	err      *multierror.Error
}

func (p *problems) add(setting string, err error) {
	p.settings = append(p.settings, setting)
	p.err = multierror.Append(p.err, err)
}

func (p *problems) errorOrNil() error {
	if p.err == nil {
		return nil
	}

	p.err.ErrorFormat = func(errs []error) string {
		messages := make([]string, 0, len(errs))
		for _, err := range errs {
			messages = append(messages, err.Error())
		}
		return strings.Join(messages, "; ")
	}

	return ConfigurationError.Wrap(p.err, "invalid configuration").
		WithProperty(SettingsProperty, p.settings)
}
