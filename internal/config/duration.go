package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// jsonDuration reads a duration from JSON either as a Go duration string
// ("5s", "1m30s") or as integer nanoseconds.
type jsonDuration time.Duration

func (d *jsonDuration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = jsonDuration(parsed)
	case float64:
		*d = jsonDuration(time.Duration(value))
	default:
		return fmt.Errorf("invalid duration %s", data)
	}
	return nil
}

// UnmarshalJSON accepts duration strings for the timeout fields. Fields
// absent from data keep their current values.
func (c *ServerConfig) UnmarshalJSON(data []byte) error {
	type plain ServerConfig
	aux := struct {
		*plain
		SendTimeout  *jsonDuration `json:"send_timeout"`
		ReadTimeout  *jsonDuration `json:"read_timeout"`
		WriteTimeout *jsonDuration `json:"write_timeout"`
		PingInterval *jsonDuration `json:"ping_interval"`
	}{
		plain:        (*plain)(c),
		SendTimeout:  (*jsonDuration)(&c.SendTimeout),
		ReadTimeout:  (*jsonDuration)(&c.ReadTimeout),
		WriteTimeout: (*jsonDuration)(&c.WriteTimeout),
		PingInterval: (*jsonDuration)(&c.PingInterval),
	}
	return json.Unmarshal(data, &aux)
}

// UnmarshalJSON accepts a duration string for terminate_grace.
func (c *ProcessConfig) UnmarshalJSON(data []byte) error {
	type plain ProcessConfig
	aux := struct {
		*plain
		TerminateGrace *jsonDuration `json:"terminate_grace"`
	}{
		plain:          (*plain)(c),
		TerminateGrace: (*jsonDuration)(&c.TerminateGrace),
	}
	return json.Unmarshal(data, &aux)
}
