package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/brianly1003/glance/internal/domain"
)

var errTrailingData = errors.New("trailing data after document")

// Descriptor field names as written by the worker hooks.
const (
	fieldCwd    = "cwd"
	fieldStatus = "status"
	fieldTS     = "ts"
	fieldPID    = "pid"
	fieldTTY    = "tty"
)

// Decode builds a Record from a descriptor document and an optional side-car
// payload. sidecar == nil means no side-car file exists.
//
// Required fields (cwd, status, ts) that are missing or of the wrong type
// yield a malformed ParseError. A status outside statuses yields an
// unknown_status ParseError. Optional fields fall back to their zero value
// when absent or mistyped.
func Decode(id string, descriptor, sidecar []byte, statuses *StatusSet) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(descriptor))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return Record{}, domain.NewMalformedError(id, "", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Record{}, domain.NewMalformedError(id, "", errTrailingData)
	}
	if doc == nil {
		return Record{}, domain.NewMalformedError(id, "", nil)
	}

	cwd, ok := doc[fieldCwd].(string)
	if !ok {
		return Record{}, domain.NewMalformedError(id, fieldCwd, nil)
	}
	rawStatus, ok := doc[fieldStatus].(string)
	if !ok {
		return Record{}, domain.NewMalformedError(id, fieldStatus, nil)
	}
	tsNum, ok := doc[fieldTS].(json.Number)
	if !ok {
		return Record{}, domain.NewMalformedError(id, fieldTS, nil)
	}
	ts, err := tsNum.Float64()
	if err != nil {
		return Record{}, domain.NewMalformedError(id, fieldTS, err)
	}

	status, ok := statuses.Parse(rawStatus)
	if !ok {
		return Record{}, domain.NewUnknownStatusError(id, rawStatus)
	}

	rec := Record{
		ID:               id,
		WorkingDirectory: cwd,
		Status:           status,
		Timestamp:        epochSeconds(ts),
		PID:              optionalPID(doc[fieldPID]),
		ContextPercent:   ParseContextPercent(sidecar),
	}
	if tty, ok := doc[fieldTTY].(string); ok {
		rec.TerminalID = tty
	}
	return rec, nil
}

// ParseContextPercent parses a side-car payload: a base-10 integer with
// optional surrounding whitespace. Anything else means "no value".
func ParseContextPercent(data []byte) *int {
	if data == nil {
		return nil
	}
	n, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		return nil
	}
	return &n
}

func optionalPID(v any) int {
	num, ok := v.(json.Number)
	if !ok {
		return 0
	}
	pid, err := strconv.ParseInt(string(num), 10, 0)
	if err != nil || pid < 0 {
		return 0
	}
	return int(pid)
}

func epochSeconds(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}
