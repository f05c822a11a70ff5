package scim

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// StatusMismatchError reports an unexpected HTTP status. The body is carried
// so a failing test shows what the server actually said.
type StatusMismatchError struct {
	Expected int
	Actual   int
	Body     string
}

func (e *StatusMismatchError) Error() string {
	return fmt.Sprintf("status mismatch: expected %d, got %d (body: %s)", e.Expected, e.Actual, e.Body)
}

// MalformedResponseError reports a body that is not valid JSON.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// MissingFieldError reports required fields absent from a response body.
type MissingFieldError struct {
	Context string
	Fields  []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required fields: %s", e.Context, strings.Join(e.Fields, ", "))
}

// UnexpectedFieldError reports fields that must not appear in a body of the
// asserted shape, such as list envelope keys on a single resource.
type UnexpectedFieldError struct {
	Context string
	Fields  []string
}

func (e *UnexpectedFieldError) Error() string {
	return fmt.Sprintf("%s: unexpected fields present: %s", e.Context, strings.Join(e.Fields, ", "))
}

// TypeMismatchError reports a field whose runtime JSON type differs from the
// contract.
type TypeMismatchError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch on %q: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// SlowResponseError reports a response slower than the configured threshold.
// It is a soft failure: latency depends on the environment, so callers log
// it as a warning rather than failing the test.
type SlowResponseError struct {
	Operation string
	Elapsed   time.Duration
	Threshold time.Duration
}

func (e *SlowResponseError) Error() string {
	return fmt.Sprintf("slow response on %s: %s exceeds threshold %s", e.Operation, e.Elapsed, e.Threshold)
}

// ValidateStatus asserts the response carries the expected HTTP status.
func ValidateStatus(resp *Response, expected int) error {
	if resp.StatusCode != expected {
		return &StatusMismatchError{
			Expected: expected,
			Actual:   resp.StatusCode,
			Body:     string(resp.Body),
		}
	}
	return nil
}

// ValidateJSONBody asserts the body parses as a JSON object and returns it.
func ValidateJSONBody(resp *Response) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	return body, nil
}

// EnvelopeKind selects which SCIM envelope shape a body must have.
type EnvelopeKind string

const (
	EnvelopeSingle EnvelopeKind = "single"
	EnvelopeList   EnvelopeKind = "list"
)

// listEnvelopeFields are the keys a SCIM list response must carry.
var listEnvelopeFields = []string{"schemas", "totalResults", "itemsPerPage", "startIndex", "Resources"}

// ValidateEnvelope asserts the SCIM envelope shape: a single resource
// carries schemas and none of the list keys; a list carries all of them,
// with Resources being an array.
func ValidateEnvelope(body map[string]interface{}, kind EnvelopeKind) error {
	switch kind {
	case EnvelopeSingle:
		if err := ValidateRequiredFields(body, []string{"schemas"}, "single resource"); err != nil {
			return err
		}
		if err := ValidateFieldTypes(body, map[string]FieldKind{"schemas": KindArray}); err != nil {
			return err
		}
		unexpected := []string{}
		for _, field := range []string{"totalResults", "Resources"} {
			if _, present := body[field]; present {
				unexpected = append(unexpected, field)
			}
		}
		if len(unexpected) > 0 {
			return &UnexpectedFieldError{Context: "single resource", Fields: unexpected}
		}
		return nil
	case EnvelopeList:
		if err := ValidateRequiredFields(body, listEnvelopeFields, "list response"); err != nil {
			return err
		}
		return ValidateFieldTypes(body, map[string]FieldKind{
			"schemas":   KindArray,
			"Resources": KindArray,
		})
	default:
		return fmt.Errorf("unknown envelope kind: %s", kind)
	}
}

// ValidateRequiredFields asserts every named field is present in the body.
// Only the missing names are reported.
func ValidateRequiredFields(body map[string]interface{}, fields []string, contextLabel string) error {
	missing := []string{}
	for _, field := range fields {
		if _, present := body[field]; !present {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldError{Context: contextLabel, Fields: missing}
	}
	return nil
}

// FieldKind is a JSON runtime type as observed after decoding.
type FieldKind string

const (
	KindString  FieldKind = "string"
	KindBoolean FieldKind = "boolean"
	KindNumber  FieldKind = "number"
	KindObject  FieldKind = "object"
	KindArray   FieldKind = "array"
	KindNull    FieldKind = "null"
)

func kindOf(v interface{}) FieldKind {
	switch v.(type) {
	case string:
		return KindString
	case bool:
		return KindBoolean
	case float64, json.Number:
		return KindNumber
	case map[string]interface{}:
		return KindObject
	case []interface{}:
		return KindArray
	default:
		return KindNull
	}
}

// ValidateFieldTypes asserts the runtime type of each listed field. Missing
// fields are reported as missing, not as a type mismatch. Fields are checked
// in name order so failures are deterministic.
func ValidateFieldTypes(body map[string]interface{}, types map[string]FieldKind) error {
	fields := make([]string, 0, len(types))
	for field := range types {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		value, present := body[field]
		if !present {
			return &MissingFieldError{Context: "field types", Fields: []string{field}}
		}
		if actual := kindOf(value); actual != types[field] {
			return &TypeMismatchError{
				Field:    field,
				Expected: string(types[field]),
				Actual:   string(actual),
			}
		}
	}
	return nil
}

// ValidateResponseTime checks the observed latency against a threshold.
// Exceeding it returns a SlowResponseError that callers treat as a warning,
// never as a hard suite failure.
func ValidateResponseTime(elapsed, threshold time.Duration, operationLabel string) error {
	if elapsed > threshold {
		return &SlowResponseError{
			Operation: operationLabel,
			Elapsed:   elapsed,
			Threshold: threshold,
		}
	}
	return nil
}
