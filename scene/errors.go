package scene

import (
	"github.com/pkg/errors"
)

// NewFieldRequiredError is returned when a required config field is missing.
func NewFieldRequiredError(path, field string) error {
	return errors.Errorf("%s: %q is required", path, field)
}

// NewInvalidFieldError is returned when a config field holds an unusable value.
func NewInvalidFieldError(path, field, reason string) error {
	return errors.Errorf("%s: invalid %q: %s", path, field, reason)
}

// NewUnknownFieldsError is returned when a scene file carries keys no config field decodes.
func NewUnknownFieldsError(keys []string) error {
	return errors.Errorf("unknown scene fields %v", keys)
}
