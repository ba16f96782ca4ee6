package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if cfg.Cloud.Enabled && cfg.Cloud.ServiceURL == "" {
		return fmt.Errorf("cloud: service_url is required when cloud is enabled")
	}

	names := make(map[string]bool)
	for i, d := range cfg.Drives {
		if strings.Contains(d.Name, `\`) {
			return fmt.Errorf("drives[%d]: drive name %q cannot contain a backslash", i, d.Name)
		}
		if names[d.Name] {
			return fmt.Errorf("drives[%d]: duplicate drive name %q", i, d.Name)
		}
		names[d.Name] = true
	}

	if cfg.CurrentDrive != "" && !names[cfg.CurrentDrive] {
		return fmt.Errorf("current_drive: %q is not one of the configured drives", cfg.CurrentDrive)
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		// Return the first validation error with context
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
