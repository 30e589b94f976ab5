package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrStatusRegression = errors.New("message status cannot move backwards")
	ErrInvalidStatus    = errors.New("invalid message status")
)

// Status is the delivery lifecycle of a persisted message. The lifecycle is
// strictly monotonic: sent -> delivered -> read. A message that is read before
// its delivery was ever observed (e.g. fetched from a cold backlog) may move
// straight from sent to read.
type Status int

const (
	StatusSent Status = iota + 1
	StatusDelivered
	StatusRead
)

func (s Status) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusDelivered:
		return "delivered"
	case StatusRead:
		return "read"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) Valid() bool {
	return s >= StatusSent && s <= StatusRead
}

// ParseStatus maps the wire name back to a Status.
func ParseStatus(name string) (Status, error) {
	switch name {
	case "sent":
		return StatusSent, nil
	case "delivered":
		return StatusDelivered, nil
	case "read":
		return StatusRead, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, name)
	}
}

// MarshalJSON writes the status by name, so clients see "sent" rather than
// an opaque integer. The bson representation stays numeric: the monotonic
// update filters compare statuses with $lt and need the ordering.
func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, int(s))
	}
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// CanAdvance reports whether moving from s to target is a legal transition.
// A transition to the current status is legal (idempotent re-delivery of the
// same event).
func (s Status) CanAdvance(target Status) bool {
	if !s.Valid() || !target.Valid() {
		return false
	}
	return target >= s
}

// Advance returns the status after applying target. Re-applying the current
// status is a no-op. A backwards transition (a stale "delivered" arriving
// after "read") keeps the current status and reports ErrStatusRegression so
// callers can tell a dropped regression from a real update.
func (s Status) Advance(target Status) (Status, error) {
	if !target.Valid() {
		return s, fmt.Errorf("%w: %d", ErrInvalidStatus, int(target))
	}
	if !s.Valid() {
		return s, fmt.Errorf("%w: %d", ErrInvalidStatus, int(s))
	}
	if target < s {
		return s, fmt.Errorf("%w: %s -> %s", ErrStatusRegression, s, target)
	}
	return target, nil
}
