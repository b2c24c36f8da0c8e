package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the observation timestamp format of the first CSV column.
// Timestamps carry no zone and are interpreted as UTC.
const TimestampLayout = "2006-01-02 15:04:05"

// Fields lists the CSV columns in file order.
var Fields = []string{"timestamp", "latitude", "longitude", "freeway_id", "freeway_dir", "lane", "speed"}

// ErrMalformed matches every error caused by an unparsable record.
var ErrMalformed = errors.New("malformed record")

// MalformedError describes which field of a record could not be converted.
type MalformedError struct {
	Field string
	Value string
	Err   error
}

func (e *MalformedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed record: field %s: %q", e.Field, e.Value)
	}
	return fmt.Sprintf("malformed record: field %s: %q: %v", e.Field, e.Value, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrMalformed) match any MalformedError.
func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }

// SensorRecord is one freeway sensor observation.
type SensorRecord struct {
	Timestamp  string  `json:"timestamp"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	FreewayID  int     `json:"freeway_id"`
	FreewayDir string  `json:"freeway_dir"`
	Lane       int     `json:"lane"`
	Speed      float64 `json:"speed"`

	observedAt time.Time
}

// ObservedAt returns the parsed observation time.
func (r SensorRecord) ObservedAt() time.Time { return r.observedAt }

// Encoded is a record serialized for publishing. Payload is one JSON object.
type Encoded struct {
	Timestamp  string
	ObservedAt time.Time
	Payload    []byte
}

// ParseTimestamp extracts the observation time from the first column of a raw line.
func ParseTimestamp(line []byte) (time.Time, error) {
	line = bytes.TrimSpace(line)
	first := line
	if i := bytes.IndexByte(line, ','); i >= 0 {
		first = line[:i]
	}
	ts, err := time.Parse(TimestampLayout, string(first))
	if err != nil {
		return time.Time{}, &MalformedError{Field: "timestamp", Value: string(first), Err: err}
	}
	return ts, nil
}

// Parse converts one raw CSV line into a SensorRecord. Columns beyond the
// seventh are ignored.
func Parse(line []byte) (SensorRecord, error) {
	cols := strings.Split(strings.TrimSpace(string(line)), ",")
	if len(cols) < len(Fields) {
		return SensorRecord{}, &MalformedError{
			Field: Fields[len(cols)],
			Value: string(line),
			Err:   fmt.Errorf("expected %d columns, got %d", len(Fields), len(cols)),
		}
	}

	observed, err := ParseTimestamp([]byte(cols[0]))
	if err != nil {
		return SensorRecord{}, err
	}

	rec := SensorRecord{
		Timestamp:  cols[0],
		FreewayDir: cols[4],
		observedAt: observed,
	}
	if rec.Latitude, err = parseFloat("latitude", cols[1]); err != nil {
		return SensorRecord{}, err
	}
	if rec.Longitude, err = parseFloat("longitude", cols[2]); err != nil {
		return SensorRecord{}, err
	}
	if rec.FreewayID, err = parseInt("freeway_id", cols[3]); err != nil {
		return SensorRecord{}, err
	}
	if rec.Lane, err = parseInt("lane", cols[5]); err != nil {
		return SensorRecord{}, err
	}
	if rec.Speed, err = parseFloat("speed", cols[6]); err != nil {
		return SensorRecord{}, err
	}
	return rec, nil
}

// Encode serializes the record as a JSON object.
func (r SensorRecord) Encode() (Encoded, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return Encoded{}, fmt.Errorf("encoding record %s: %w", r.Timestamp, err)
	}
	return Encoded{
		Timestamp:  r.Timestamp,
		ObservedAt: r.observedAt,
		Payload:    payload,
	}, nil
}

// Convert parses and encodes a raw line in one step.
func Convert(line []byte) (Encoded, error) {
	rec, err := Parse(line)
	if err != nil {
		return Encoded{}, err
	}
	return rec.Encode()
}

// Format renders a record back into a CSV line without a trailing newline.
func (r SensorRecord) Format() string {
	return strings.Join([]string{
		r.Timestamp,
		strconv.FormatFloat(r.Latitude, 'f', -1, 64),
		strconv.FormatFloat(r.Longitude, 'f', -1, 64),
		strconv.Itoa(r.FreewayID),
		r.FreewayDir,
		strconv.Itoa(r.Lane),
		strconv.FormatFloat(r.Speed, 'f', -1, 64),
	}, ",")
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &MalformedError{Field: field, Value: s, Err: err}
	}
	return v, nil
}

func parseInt(field, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &MalformedError{Field: field, Value: s, Err: err}
	}
	return v, nil
}
