// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing request bodies and query
// strings. Bodies may be JSON objects or form-encoded.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tally/internal/core"
	"tally/internal/filter"
)

const maxBodyBytes = 1 << 20

var (
	errBodyTooLarge = errors.New("request body too large")
	errBadBody      = errors.New("malformed request body")
)

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' || strings.Contains(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = fmt.Errorf("decode json body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was sent at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Int returns key as an integer. A missing or empty value yields def; a
// value that is not a whole number is a ValidationError.
func (p *RequestBodyParser) Int(key string, def int) (int, error) {
	v := p.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.NewValidationError(key, fmt.Sprintf("%s must be a whole number", key))
	}
	return n, nil
}

// Bool returns key as a boolean. Checkbox values ("on") count as true.
func (p *RequestBodyParser) Bool(key string, def bool) (bool, error) {
	v := strings.ToLower(p.Get(key))
	switch v {
	case "":
		return def, nil
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, core.NewValidationError(key, fmt.Sprintf("%s must be true or false", key))
	}
	return b, nil
}

// Decode unmarshals a JSON body into v. Form bodies are rejected.
func (p *RequestBodyParser) Decode(v any) error {
	if err := p.Parse(); err != nil {
		return err
	}
	if p.jsonData == nil {
		return core.NewValidationError("body", "a JSON body is required")
	}
	if err := json.Unmarshal(p.body, v); err != nil {
		return core.NewValidationError("body", fmt.Sprintf("malformed JSON: %v", err))
	}
	return nil
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseBody reads and parses the request body.
func parseBody(r *http.Request) (*RequestBodyParser, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errBadBody, err)
	}
	return p, nil
}

// ParseRoundFilter reads team, round and day from a query string.
func ParseRoundFilter(q url.Values) (filter.RoundFilter, error) {
	f := filter.RoundFilter{
		Team: sanitizeInput(q.Get("team")),
		Day:  sanitizeInput(q.Get("day")),
	}
	if v := strings.TrimSpace(q.Get("round")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter.RoundFilter{}, core.NewValidationError("round", "Round must be a number")
		}
		f.RoundNumber = n
	}
	return f, nil
}

// ParseExpenseFilter reads category and period from a query string. Empty
// values mean all.
func ParseExpenseFilter(q url.Values) filter.ExpenseFilter {
	period := filter.Period(strings.ToLower(strings.TrimSpace(q.Get("period"))))
	if period == "" {
		period = filter.PeriodAll
	}
	return filter.ExpenseFilter{
		Category: core.Category(strings.TrimSpace(q.Get("category"))),
		Period:   period,
	}
}
