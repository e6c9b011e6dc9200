// Package snapshot defines the portable entity snapshot model used to move
// report and workflow configuration between deployments. A snapshot is a
// loosely-typed field mapping: the reconciliation engine only inspects the
// identity fields and treats the rest of the body as opaque.
package snapshot

import (
	"strconv"
)

// Kind identifies which configuration entity a snapshot represents. The kind
// selects the sanitization rules and the identity strategy.
type Kind string

// String returns the string representation of a kind.
func (k Kind) String() string {
	return string(k)
}

const (
	// KindReport is a saved report definition. Reports are matched remotely
	// by name.
	KindReport Kind = "report"

	// KindWorkflow is a workflow definition. Workflows carry pre-assigned
	// identifiers that stay stable across deployments.
	KindWorkflow Kind = "workflow"
)

// Path returns the remote API collection path for the kind.
func (k Kind) Path() string {
	switch k {
	case KindWorkflow:
		return "/api/v1/workflows"
	default:
		return "/api/v1/reports"
	}
}

// Fields is the raw field mapping of one configuration entity.
type Fields map[string]any

// Snapshot is one configuration entity staged for transfer.
type Snapshot struct {
	Kind   Kind
	Fields Fields

	// File is the snapshot's originating file, when loaded from disk.
	// Used for operator diagnostics only.
	File string
}

// Name returns the entity's human-readable name, or "" if absent.
func (f Fields) Name() string {
	return f.str("name")
}

// ID returns the entity's remote identifier, or "" if absent. Numeric
// identifiers are rendered in their canonical decimal form.
func (f Fields) ID() string {
	return CoerceID(f["id"])
}

// EntityType returns the workflow's declared entity type, or "" if absent.
func (f Fields) EntityType() string {
	return f.str("entityType")
}

// IsActive reports whether the entity is flagged active, and whether the
// flag is present at all.
func (f Fields) IsActive() (active, ok bool) {
	v, present := f["isActive"]
	if !present {
		return false, false
	}
	b, isBool := v.(bool)
	return b, isBool
}

// Clone returns a deep copy of the fields. Nested maps and slices are copied
// recursively so mutation of the clone never reaches the original.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func (f Fields) str(key string) string {
	if s, ok := f[key].(string); ok {
		return s
	}
	return ""
}

// CoerceID renders an identifier value from a decoded JSON document as a
// string. JSON numbers decode as float64; integral values are rendered
// without a fractional part.
func CoerceID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return ""
	}
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, nested := range val {
			out[k] = cloneValue(nested)
		}
		return out
	case Fields:
		return map[string]any(val.Clone())
	case []any:
		out := make([]any, len(val))
		for i, nested := range val {
			out[i] = cloneValue(nested)
		}
		return out
	default:
		return val
	}
}
