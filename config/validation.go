package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the configuration for consistency. Struct tag
// violations and cross-field contradictions are both reported as plain
// errors naming the offending field.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	if err := validate.Struct(cfg); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
			fe := fieldErrors[0]
			return fmt.Errorf("field %s failed validation on %q (value: %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}

	if cfg.Client.BackoffCap > 0 && cfg.Client.BackoffBase > cfg.Client.BackoffCap {
		return fmt.Errorf("client config: backoff_base (%v) exceeds backoff_cap (%v)",
			cfg.Client.BackoffBase, cfg.Client.BackoffCap)
	}
	if cfg.Client.RateLimit > 0 && cfg.Client.RateBurst < 1 {
		return errors.New("client config: rate_burst must be at least 1 when rate_limit is set")
	}

	return nil
}
