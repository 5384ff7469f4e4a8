// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"grledger/internal/core"
	"grledger/internal/forms"
	"grledger/internal/report"
)

// DefaultBodyLimit caps request bodies. Briefs carry up to a few reference
// images as data URLs.
const DefaultBodyLimit = 16 << 20

// RequestBodyParser reads a JSON object body once and hands out its fields.
type RequestBodyParser struct {
	body   []byte
	fields map[string]any
	parsed bool
	err    error
}

// NewRequestBodyParser creates a parser for the given request, reading at
// most limit bytes.
func NewRequestBodyParser(r *http.Request, limit int64) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, limit+1))
	if p.err == nil && int64(len(p.body)) > limit {
		p.err = fmt.Errorf("%w: body exceeds %d bytes", errBadRequest, limit)
	}
	return p
}

// Parse decodes the body as a JSON object. An empty body is an empty object.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	p.fields = map[string]any{}
	if len(bytes.TrimSpace(p.body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(p.body))
	dec.UseNumber()
	if err := dec.Decode(&p.fields); err != nil {
		p.err = fmt.Errorf("%w: body must be a JSON object: %v", errBadRequest, err)
	}
	return p.err
}

// Has reports whether key was present in the body.
func (p *RequestBodyParser) Has(key string) bool {
	_, ok := p.fields[key]
	return ok
}

// Get returns a scalar field as a string, sanitized and trimmed.
func (p *RequestBodyParser) Get(key string) string {
	s, _ := forms.Stringify(p.fields[key])
	return strings.TrimSpace(sanitizeInput(s))
}

// Values collects every scalar field except skip as form values. Nested
// objects and arrays are left to Decode.
func (p *RequestBodyParser) Values(skip ...string) (map[string]string, error) {
	out := make(map[string]string, len(p.fields))
	for k, v := range p.fields {
		if contains(skip, k) {
			continue
		}
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("%w: field %s must be a scalar", errBadRequest, k)
		}
		s, ok := forms.Stringify(v)
		if !ok {
			return nil, fmt.Errorf("%w: field %s has an unsupported type", errBadRequest, k)
		}
		out[k] = sanitizeInput(s)
	}
	return out, nil
}

// Decode re-decodes one field into dst.
func (p *RequestBodyParser) Decode(key string, dst any) error {
	raw, err := json.Marshal(p.fields[key])
	if err != nil {
		return fmt.Errorf("%w: field %s: %v", errBadRequest, key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: field %s: %v", errBadRequest, key, err)
	}
	return nil
}

// ParseReportQuery reads mode, year and month. Missing values default to the
// current year and month; the query is validated by the report package.
func ParseReportQuery(query url.Values, now time.Time) (report.Query, error) {
	q := report.Query{
		Mode:  core.ReportMode(strings.ToLower(strings.TrimSpace(query.Get("mode")))),
		Year:  now.Year(),
		Month: int(now.Month()),
	}
	if q.Mode == "" {
		q.Mode = core.ReportYearly
	}
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("%w: year %q", errBadRequest, v)
		}
		q.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("%w: month %q", errBadRequest, v)
		}
		q.Month = m
	}
	if q.Mode == core.ReportYearly {
		q.Month = 0
	}
	if err := q.Validate(); err != nil {
		return q, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return q, nil
}

// confirmed reads the ?confirm= flag of delete routes.
func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

// sanitizeInput removes control characters except tab, newline and carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
