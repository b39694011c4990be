package typeutil

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Duration wraps time.Duration so it round-trips through JSON and TOML
// config files as a human-readable string ("1s", "500ms") while still
// accepting plain nanosecond numbers from JSON.
type Duration struct {
	time.Duration
}

// NewDuration wraps duration.
func NewDuration(duration time.Duration) Duration {
	return Duration{Duration: duration}
}

// MarshalJSON renders the duration as a quoted string.
func (d *Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts either a duration string or a number of
// nanoseconds.
func (d *Duration) UnmarshalJSON(text []byte) error {
	var v interface{}
	if err := json.Unmarshal(text, &v); err != nil {
		return err
	}
	if ns, ok := v.(float64); ok {
		d.Duration = time.Duration(ns)
		return nil
	}
	if s, ok := v.(string); ok {
		duration, err := time.ParseDuration(s)
		if err != nil {
			return errors.WithMessage(err, "parse duration string")
		}
		d.Duration = duration
		return nil
	}
	return errors.New("neither a duration string nor nanoseconds")
}

// MarshalText renders the duration as a bare string for TOML.
func (d *Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses a bare duration string from TOML.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.WithMessage(err, "parse duration text")
	}
	d.Duration = duration
	return nil
}
