package wire

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Typed accessors. Absent and null keys read as the zero value with a nil
// error; a present value that does not parse returns an error.

// GetString returns the value as a string and whether it was present.
func (p *Properties) GetString(key string) (string, bool) {
	v, ok := p.Get(key)
	if !ok {
		return "", false
	}
	return string(v), true
}

// SetString stores a string value.
func (p *Properties) SetString(key, value string) {
	p.Set(key, []byte(value))
}

// SetOptionalString stores value, or a null when value is empty.
func (p *Properties) SetOptionalString(key, value string) {
	if value == "" {
		p.SetNull(key)
		return
	}
	p.SetString(key, value)
}

// Int32 parses a decimal int32.
func (p *Properties) Int32(key string) (int32, error) {
	v, ok := p.Get(key)
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(v), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("wire: property %q: %w", key, err)
	}
	return int32(n), nil
}

// SetInt32 stores a decimal int32.
func (p *Properties) SetInt32(key string, value int32) {
	p.Set(key, strconv.AppendInt(nil, int64(value), 10))
}

// Int64 parses a decimal int64.
func (p *Properties) Int64(key string) (int64, error) {
	v, ok := p.Get(key)
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("wire: property %q: %w", key, err)
	}
	return n, nil
}

// SetInt64 stores a decimal int64.
func (p *Properties) SetInt64(key string, value int64) {
	p.Set(key, strconv.AppendInt(nil, value, 10))
}

// Bool parses "true" or "false".
func (p *Properties) Bool(key string) (bool, error) {
	v, ok := p.Get(key)
	if !ok {
		return false, nil
	}
	b, err := strconv.ParseBool(string(v))
	if err != nil {
		return false, fmt.Errorf("wire: property %q: %w", key, err)
	}
	return b, nil
}

// SetBool stores "true" or "false".
func (p *Properties) SetBool(key string, value bool) {
	p.Set(key, strconv.AppendBool(nil, value))
}

// Duration parses a decimal nanosecond count.
func (p *Properties) Duration(key string) (time.Duration, error) {
	n, err := p.Int64(key)
	return time.Duration(n), err
}

// SetDuration stores the duration as decimal nanoseconds.
func (p *Properties) SetDuration(key string, value time.Duration) {
	p.SetInt64(key, int64(value))
}

// Time parses an RFC 3339 timestamp.
func (p *Properties) Time(key string) (time.Time, error) {
	v, ok := p.Get(key)
	if !ok {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, string(v))
	if err != nil {
		return time.Time{}, fmt.Errorf("wire: property %q: %w", key, err)
	}
	return t, nil
}

// SetTime stores the timestamp in UTC with nanosecond precision.
func (p *Properties) SetTime(key string, value time.Time) {
	p.SetString(key, value.UTC().Format(time.RFC3339Nano))
}

// Bytes returns the raw value. The returned slice aliases the bag.
func (p *Properties) Bytes(key string) []byte {
	v, _ := p.Get(key)
	return v
}

// SetBytes stores a raw value, or a null when value is nil.
func (p *Properties) SetBytes(key string, value []byte) {
	if value == nil {
		p.SetNull(key)
		return
	}
	p.Set(key, value)
}

// JSON unmarshals the value into target. It reports false when the key is
// absent or null and target was left untouched.
func (p *Properties) JSON(key string, target interface{}) (bool, error) {
	v, ok := p.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(v, target); err != nil {
		return false, fmt.Errorf("wire: property %q: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals value into the bag. A nil value is stored as a null.
func (p *Properties) SetJSON(key string, value interface{}) error {
	if value == nil {
		p.SetNull(key)
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("wire: property %q: %w", key, err)
	}
	p.Set(key, data)
	return nil
}
