package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ErrInvalidValue is returned by Parse for values the field cannot hold.
var ErrInvalidValue = errors.New("invalid value")

// Parse converts command line words into a value of the field's type.
// Fields with options only accept one of them.
func (f *Field) Parse(raw []string) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s needs a value", ErrInvalidValue, f.Key)
	}

	switch f.Value.(type) {
	case string:
		value := raw[0]
		if len(f.Options) > 0 && !lo.Contains(f.Options, value) {
			return nil, fmt.Errorf("%w: %s must be one of %s", ErrInvalidValue, f.Key, strings.Join(f.Options, ", "))
		}
		return value, nil
	case int:
		parsed, err := strconv.Atoi(raw[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, raw[0])
		}
		if parsed < 0 {
			return nil, fmt.Errorf("%w: %s cannot be negative", ErrInvalidValue, f.Key)
		}
		return parsed, nil
	case bool:
		parsed, err := strconv.ParseBool(raw[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, raw[0])
		}
		return parsed, nil
	case []string:
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type of %s", ErrInvalidValue, f.Key)
	}
}
