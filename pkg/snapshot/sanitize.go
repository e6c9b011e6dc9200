package snapshot

// Direction selects which sanitization rules apply. Export strips the remote
// identifier so that identity is re-derived on import; import keeps it for
// the kinds that carry stable identifiers.
type Direction string

const (
	// DirectionExport sanitizes an entity fetched from a source deployment
	// before it is written to disk.
	DirectionExport Direction = "export"

	// DirectionImport sanitizes an entity read from disk before it is
	// written to a target deployment.
	DirectionImport Direction = "import"
)

// environmentBound are fields whose values are only valid within the
// deployment that produced them. They are stripped in both directions.
var environmentBound = []string{
	"createdAt",
	"modifiedAt",
	"createdById",
	"modifiedById",
}

// reportImportRejected are fields the remote API rejects or silently ignores
// on report updates. Stripped on report import only.
var reportImportRejected = []string{
	"entityId",
	"entityType",
	"isInternal",
}

// Sanitize returns a copy of the fields with environment-bound values
// removed. It is pure and total: unknown fields pass through verbatim
// (nested structures included), missing excluded fields are ignored, and the
// input is never mutated.
func Sanitize(f Fields, kind Kind, dir Direction) Fields {
	if f == nil {
		return nil
	}

	excluded := make(map[string]struct{}, len(environmentBound)+4)
	for _, field := range environmentBound {
		excluded[field] = struct{}{}
	}
	// Reports re-derive identity by name on import, so their exported files
	// carry no id. Workflows travel with ids intact.
	if dir == DirectionExport && kind == KindReport {
		excluded["id"] = struct{}{}
	}
	if dir == DirectionImport && kind == KindReport {
		for _, field := range reportImportRejected {
			excluded[field] = struct{}{}
		}
	}

	out := make(Fields, len(f))
	for k, v := range f {
		if _, skip := excluded[k]; skip {
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}
