package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iho/balanceledger/internal/domain"
)

// LocalTimestampLayout is accepted alongside RFC3339 and read as UTC.
const LocalTimestampLayout = "2006-01-02T15:04:05"

// ParseTimestamp parses an RFC3339 timestamp or one in LocalTimestampLayout.
// The result is always in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: timestamp is required", domain.ErrInvalidDate)
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	t, err := time.ParseInLocation(LocalTimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is neither RFC3339 nor %s", domain.ErrInvalidDate, s, LocalTimestampLayout)
	}

	return t, nil
}

// Timestamp is a time.Time that decodes with ParseTimestamp.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: timestamp must be a string", domain.ErrInvalidDate)
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}

	t.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
