package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/datazip-inc/tap-hubspot/typeutils"
	"github.com/datazip-inc/tap-hubspot/utils"
	"github.com/goccy/go-json"
)

// Resolve turns raw setting values gathered from any source into validated Settings.
// Missing optional settings take their schema default; every problem found is
// reported in a single ConfigurationError.
func Resolve(raw map[string]any) (Settings, error) {
	errs := &problems{}
	values := make(map[string]any, len(Schema))

	for _, setting := range Schema {
		value, present := raw[setting.Name]
		if present && isBlank(value) {
			present = false
		}

		if !present {
			if setting.Required {
				errs.add(setting.Name, fmt.Errorf("%s is required", setting.Name))
			} else if setting.Default != nil {
				values[setting.Name] = setting.Default
			}
			continue
		}

		parsed, err := parse(setting, value)
		if err != nil {
			errs.add(setting.Name, err)
			continue
		}
		values[setting.Name] = parsed
	}

	if err := errs.errorOrNil(); err != nil {
		return Settings{}, err
	}

	settings := Settings{}
	if err := utils.Unmarshal(values, &settings); err != nil {
		return Settings{}, ConfigurationError.Wrap(err, "invalid configuration")
	}

	fieldErrs, err := utils.FieldErrors(settings)
	if err != nil {
		return Settings{}, ConfigurationError.Wrap(err, "invalid configuration")
	}
	for _, fieldErr := range fieldErrs {
		errs.add(fieldErr.Field, fieldErr)
	}

	start, end := settings.EmailEventsStartTimestamp, settings.EmailEventsEndTimestamp
	if start != nil && end != nil && *start > *end {
		errs.add("email_events_start_timestamp", fmt.Errorf("email_events_start_timestamp (%d) must not be after email_events_end_timestamp (%d)", *start, *end))
	}

	if err := errs.errorOrNil(); err != nil {
		return Settings{}, err
	}

	return settings, nil
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	str, ok := value.(string)
	return ok && strings.TrimSpace(str) == ""
}

func parse(setting Setting, value any) (any, error) {
	switch setting.Kind {
	case KindCredential, KindString:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string, found %T", setting.Name, value)
		}
		if setting.Kind == KindCredential {
			return strings.TrimSpace(str), nil
		}
		return str, nil
	case KindURL:
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string, found %T", setting.Name, value)
		}
		parsed, err := url.Parse(strings.TrimSpace(str))
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return nil, fmt.Errorf("%s must be an absolute http(s) url, found %q", setting.Name, str)
		}
		return strings.TrimSpace(str), nil
	case KindLimit:
		limit, err := typeutils.ReformatInt64(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer: %s", setting.Name, err)
		}
		if limit < -1 {
			return nil, fmt.Errorf("%s must be -1 (unlimited) or a non-negative integer, found %d", setting.Name, limit)
		}
		return limit, nil
	case KindTimestamp:
		timestamp, err := typeutils.ReformatInt64(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be milliseconds since epoch: %s", setting.Name, err)
		}
		if timestamp < 0 {
			return nil, fmt.Errorf("%s must not be negative, found %d", setting.Name, timestamp)
		}
		return timestamp, nil
	case KindInteger:
		number, err := typeutils.ReformatInt64(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer: %s", setting.Name, err)
		}
		if number < setting.Min {
			return nil, fmt.Errorf("%s must be at least %d, found %d", setting.Name, setting.Min, number)
		}
		return number, nil
	case KindBoolean:
		flag, err := typeutils.ReformatBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be a boolean: %s", setting.Name, err)
		}
		return flag, nil
	case KindObject:
		switch object := value.(type) {
		case map[string]any:
			return object, nil
		case map[any]any:
			converted := make(map[string]any, len(object))
			for key, inner := range object {
				converted[fmt.Sprint(key)] = inner
			}
			return converted, nil
		case string:
			// objects set through the environment arrive as JSON text
			decoded := map[string]any{}
			if err := json.Unmarshal([]byte(object), &decoded); err != nil {
				return nil, fmt.Errorf("%s must be a JSON object: %s", setting.Name, err)
			}
			return decoded, nil
		default:
			return nil, fmt.Errorf("%s must be an object, found %T", setting.Name, value)
		}
	default:
		return nil, fmt.Errorf("unknown kind %s of setting %s", setting.Kind, setting.Name)
	}
}
