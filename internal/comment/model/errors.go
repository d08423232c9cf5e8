package model

import (
	"errors"
	"strings"
)

// ErrMalformedRecord is matched by every error returned for a comment record
// that cannot be turned into a CommentNode.
var ErrMalformedRecord = errors.New("malformed comment record")

// MalformedRecordError carries the parse diagnostic for a rejected record.
// Err is set for shape errors, Fields for required keys that were absent.
type MalformedRecordError struct {
	Fields []string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	var b strings.Builder
	b.WriteString(ErrMalformedRecord.Error())
	if len(e.Fields) > 0 {
		b.WriteString(": missing field(s) ")
		b.WriteString(strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }

func (e *MalformedRecordError) Unwrap() error { return e.Err }

func asMalformed(err error) error {
	var me *MalformedRecordError
	if errors.As(err, &me) {
		return me
	}
	return &MalformedRecordError{Err: err}
}
