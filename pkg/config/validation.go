package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration against the struct-tag constraints and
// the cross-field rules the tags cannot express.
func Validate(cfg *Config) error {
	v := validator.New()

	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describeFieldError(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	return nil
}

// describeFieldError turns a validator error into a readable message keyed by
// the config path rather than the Go field name.
func describeFieldError(fe validator.FieldError) string {
	// Namespace looks like "Config.Signing.Secret"; drop the root.
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	path = strings.ToLower(path)

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", path, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", path)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", path, fe.Param())
	case "min", "max":
		return fmt.Sprintf("%s is out of range (%s=%s)", path, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", path, fe.Tag())
	}
}
