// Package source yields raw comment records, one JSON object each, from the
// formats comment dumps usually come in.
package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// maxRecord caps a single JSON-lines record.
const maxRecord = 4 << 20

// Source yields records in arrival order. Next returns io.EOF once the
// source is exhausted.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
}

type sliceSource struct {
	records [][]byte
	pos     int
}

// NewSlice serves records from memory.
func NewSlice(records [][]byte) Source {
	return &sliceSource{records: records}
}

func (s *sliceSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

type linesSource struct {
	sc   *bufio.Scanner
	line int
}

// NewJSONLines reads one record per line. Blank lines are skipped.
func NewJSONLines(r io.Reader) Source {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecord)
	return &linesSource{sc: sc}
}

func (s *linesSource) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.sc.Scan() {
			if err := s.sc.Err(); err != nil {
				return nil, fmt.Errorf("read line %d: %w", s.line+1, err)
			}
			return nil, io.EOF
		}
		s.line++
		line := bytes.TrimSpace(s.sc.Bytes())
		if len(line) == 0 {
			continue
		}
		return append([]byte(nil), line...), nil
	}
}

type arraySource struct {
	dec     *json.Decoder
	started bool
	done    bool
}

// NewJSONArray streams the elements of a single top-level JSON array.
func NewJSONArray(r io.Reader) Source {
	return &arraySource{dec: json.NewDecoder(r)}
}

func (s *arraySource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.done {
		return nil, io.EOF
	}
	if !s.started {
		tok, err := s.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read array start: %w", err)
		}
		if d, ok := tok.(json.Delim); !ok || d != '[' {
			return nil, fmt.Errorf("want a JSON array, got %v", tok)
		}
		s.started = true
	}
	if !s.dec.More() {
		if _, err := s.dec.Token(); err != nil {
			return nil, fmt.Errorf("read array end: %w", err)
		}
		s.done = true
		return nil, io.EOF
	}
	var rec json.RawMessage
	if err := s.dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("read array element: %w", err)
	}
	return rec, nil
}

// Detect picks NewJSONArray when the first non-space byte opens an array and
// NewJSONLines otherwise.
func Detect(r io.Reader) (Source, error) {
	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			return NewSlice(nil), nil
		}
		if err != nil {
			return nil, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return nil, err
		}
		if b == '[' {
			return NewJSONArray(br), nil
		}
		return NewJSONLines(br), nil
	}
}

// Drain reads src to the end.
func Drain(ctx context.Context, src Source) ([][]byte, error) {
	var out [][]byte
	for {
		rec, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
