package logger

import "strings"

// redactedValue replaces sensitive values in log output.
const redactedValue = "[REDACTED]"

// RedactorConfig controls which field and header names are considered
// sensitive when payloads are logged.
type RedactorConfig struct {
	// SensitiveKeys are matched case-insensitively as substrings of the
	// field key (so "api_key" matches "service_api_key").
	SensitiveKeys []string
	// SensitiveHeaders are matched case-insensitively against header
	// names inside header maps.
	SensitiveHeaders []string
}

// DefaultRedactorConfig returns the default set of sensitive field and
// header names. HTTP clients routinely log request headers and bodies,
// so credentials and session material are filtered by default.
func DefaultRedactorConfig() *RedactorConfig {
	return &RedactorConfig{
		SensitiveKeys: []string{
			"password",
			"secret",
			"token",
			"api_key",
			"apikey",
			"credential",
			"private_key",
		},
		SensitiveHeaders: []string{
			"authorization",
			"proxy-authorization",
			"cookie",
			"set-cookie",
			"x-api-key",
		},
	}
}

// Redactor filters sensitive values out of structured log fields.
type Redactor struct {
	keys    []string
	headers map[string]struct{}
}

// NewRedactor creates a Redactor from the given configuration. A nil
// configuration uses the defaults.
func NewRedactor(cfg *RedactorConfig) *Redactor {
	if cfg == nil {
		cfg = DefaultRedactorConfig()
	}
	r := &Redactor{
		keys:    make([]string, 0, len(cfg.SensitiveKeys)),
		headers: make(map[string]struct{}, len(cfg.SensitiveHeaders)),
	}
	for _, k := range cfg.SensitiveKeys {
		r.keys = append(r.keys, strings.ToLower(k))
	}
	for _, h := range cfg.SensitiveHeaders {
		r.headers[strings.ToLower(h)] = struct{}{}
	}
	return r
}

// RedactString returns the value, or the redaction marker when the key
// names a sensitive field.
func (r *Redactor) RedactString(key, value string) string {
	if r.sensitiveKey(key) {
		return redactedValue
	}
	return value
}

// RedactValue filters a value of arbitrary type. Header maps
// (map[string]string) have sensitive entries replaced individually;
// nested field maps are filtered recursively.
func (r *Redactor) RedactValue(key string, v any) any {
	if r.sensitiveKey(key) {
		return redactedValue
	}
	switch m := v.(type) {
	case map[string]string:
		out := make(map[string]string, len(m))
		for k, val := range m {
			if r.sensitiveHeader(k) || r.sensitiveKey(k) {
				out[k] = redactedValue
			} else {
				out[k] = val
			}
		}
		return out
	case map[string]any:
		return r.RedactFields(m)
	default:
		return v
	}
}

// RedactFields filters a field map, returning a copy with sensitive
// entries replaced.
func (r *Redactor) RedactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = r.RedactValue(k, v)
	}
	return out
}

func (r *Redactor) sensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range r.keys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func (r *Redactor) sensitiveHeader(name string) bool {
	_, ok := r.headers[strings.ToLower(name)]
	return ok
}
