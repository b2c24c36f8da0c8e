package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned before a run starts when the driver cannot be configured.
var ErrInvalidConfig = errors.New("invalid configuration")

// RecordError reports the record that stopped a run.
type RecordError struct {
	Op        string // read, parse, convert or publish
	Position  int    // 1-based record index, header excluded
	Timestamp string
	Err       error
}

func (e *RecordError) Error() string {
	if e.Timestamp == "" {
		return fmt.Sprintf("%s at record %d: %v", e.Op, e.Position, e.Err)
	}
	return fmt.Sprintf("%s at record %d (%s): %v", e.Op, e.Position, e.Timestamp, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
