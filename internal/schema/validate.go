package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode selects the validation rules for an operation.
type Mode int

const (
	// ModeCreate requires every non-nullable, non-defaulted field.
	ModeCreate Mode = iota
	// ModeUpdate permits any subset of mutable fields (partial update).
	ModeUpdate
)

// FailureKind separates "field missing" from "field present but malformed".
// Both resolve to a 400 at the HTTP layer.
type FailureKind int

const (
	KindMissingField FailureKind = iota
	KindBadSyntax
)

// ValidationError reports the first field that failed validation.
type ValidationError struct {
	Kind  FailureKind
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func missingField(name string) *ValidationError {
	return &ValidationError{
		Kind:  KindMissingField,
		Field: name,
		Msg:   fmt.Sprintf("missing required field %q", name),
	}
}

func badSyntax(name, detail string) *ValidationError {
	return &ValidationError{
		Kind:  KindBadSyntax,
		Field: name,
		Msg:   fmt.Sprintf("invalid value for field %q: %s", name, detail),
	}
}

const (
	dateLayout = "2006-01-02"
)

// Validate coerces untrusted input against the schema and returns the
// sanitized field map. The result never contains server-managed fields,
// regardless of what the caller supplied, and never contains fields the
// schema does not declare. Absent fields and empty strings are dropped;
// boolean false and integer zero are kept as supplied values.
//
// Pure function of (schema, input, mode).
func Validate(s *Schema, input map[string]any, mode Mode) (map[string]any, error) {
	out := make(map[string]any, len(input))

	for _, f := range s.Fields {
		if f.ServerManaged {
			continue
		}

		raw, present := input[f.Name]
		if present {
			if raw == nil {
				present = false
			} else if str, ok := raw.(string); ok && strings.TrimSpace(str) == "" {
				present = false
			}
		}

		if !present {
			if mode == ModeCreate {
				if f.Default != "" {
					val, err := coerce(f, f.Default)
					if err != nil {
						return nil, err
					}
					out[f.Name] = val
					continue
				}
				if !f.Nullable {
					return nil, missingField(f.Name)
				}
			}
			continue
		}

		val, err := coerce(f, raw)
		if err != nil {
			return nil, err
		}
		out[f.Name] = val
	}

	return out, nil
}

// coerce converts a raw value to the declared primitive type.
func coerce(f Field, raw any) (any, error) {
	switch f.Type {
	case TypeString, TypeText:
		return coerceString(f, raw)
	case TypeInteger:
		return coerceInteger(f, raw)
	case TypeBoolean:
		return coerceBoolean(f, raw)
	case TypeEnum:
		return coerceEnum(f, raw)
	case TypeUUID:
		return coerceUUID(f, raw)
	case TypeDate:
		return coerceTime(f, raw, dateLayout)
	case TypeDateTime:
		return coerceTime(f, raw, time.RFC3339)
	default:
		return nil, badSyntax(f.Name, fmt.Sprintf("unsupported field type %q", f.Type))
	}
}

func coerceString(f Field, raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int, int64:
		return fmt.Sprintf("%d", v), nil
	default:
		return nil, badSyntax(f.Name, "expected a string")
	}
}

func coerceInteger(f Field, raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		// JSON numbers arrive as float64; fractional values are rejected.
		if v != math.Trunc(v) {
			return nil, badSyntax(f.Name, "expected an integer")
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, badSyntax(f.Name, "expected an integer")
		}
		return n, nil
	default:
		return nil, badSyntax(f.Name, "expected an integer")
	}
}

func coerceBoolean(f Field, raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, badSyntax(f.Name, "expected a boolean")
		}
		return b, nil
	default:
		return nil, badSyntax(f.Name, "expected a boolean")
	}
}

func coerceEnum(f Field, raw any) (any, error) {
	v, ok := raw.(string)
	if !ok {
		return nil, badSyntax(f.Name, "expected a string")
	}
	for _, allowed := range f.Enum {
		if v == allowed {
			return v, nil
		}
	}
	return nil, badSyntax(f.Name, fmt.Sprintf("must be one of %s", strings.Join(f.Enum, ", ")))
}

func coerceUUID(f Field, raw any) (any, error) {
	v, ok := raw.(string)
	if !ok {
		return nil, badSyntax(f.Name, "expected a UUID")
	}
	id, err := uuid.Parse(strings.TrimSpace(v))
	if err != nil {
		return nil, badSyntax(f.Name, "expected a UUID")
	}
	return id.String(), nil
}

func coerceTime(f Field, raw any, layout string) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		t, err := time.Parse(layout, strings.TrimSpace(v))
		if err != nil {
			return nil, badSyntax(f.Name, fmt.Sprintf("expected timestamp in %q format", layout))
		}
		return t.UTC(), nil
	default:
		return nil, badSyntax(f.Name, "expected a timestamp")
	}
}
