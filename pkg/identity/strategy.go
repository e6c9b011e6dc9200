// Package identity resolves whether a local entity snapshot corresponds to
// an existing record in a target deployment, and if so, which one. Each
// entity kind selects one of two strategies: reports match by exact name,
// workflows match by their pre-assigned identifier.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/stackmill/confsync/pkg/errors"
	"github.com/stackmill/confsync/pkg/snapshot"
)

// Remote is the minimal remote API surface identity resolution needs. It is
// satisfied by transport.Client: 2xx maps to a parsed body, 404 maps to a
// nil result, anything else is an error.
type Remote interface {
	Request(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// StrategyType represents the type of identity resolution strategy.
type StrategyType string

// String returns the string representation of a strategy type.
func (s StrategyType) String() string {
	return string(s)
}

const (
	// StrategyTypeName matches entities by exact remote name.
	StrategyTypeName StrategyType = "name"
	// StrategyTypeID matches entities by a pre-assigned stable identifier.
	StrategyTypeID StrategyType = "id"
)

// Strategy determines the remote identifier to upsert a snapshot against.
type Strategy interface {
	// Type returns the strategy type
	Type() StrategyType

	// Resolve returns the remote identifier the snapshot corresponds to, or
	// "" if the entity does not exist remotely. Transport errors propagate
	// unmodified; no retries are performed.
	Resolve(ctx context.Context, remote Remote, kind snapshot.Kind, fields snapshot.Fields) (string, error)
}

// ForKind returns the strategy appropriate for an entity kind.
func ForKind(kind snapshot.Kind) Strategy {
	if kind == snapshot.KindWorkflow {
		return &IDStrategy{}
	}
	return &NameStrategy{}
}

// NameStrategy treats the remote name field as the portable key. It issues a
// lookup filtered by exact name with page size 1 and deliberately ignores
// any identifier embedded in the local snapshot: names are assumed unique
// enough in practice, and are stable across independently provisioned
// deployments where identifiers are not.
type NameStrategy struct{}

// Type returns the strategy type.
func (s *NameStrategy) Type() StrategyType {
	return StrategyTypeName
}

// Resolve implements the Strategy interface for NameStrategy.
func (s *NameStrategy) Resolve(ctx context.Context, remote Remote, kind snapshot.Kind, fields snapshot.Fields) (string, error) {
	path := fmt.Sprintf("%s?name=%s&limit=1", kind.Path(), url.QueryEscape(fields.Name()))

	raw, err := remote.Request(ctx, "GET", path, nil)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", nil
	}

	items, err := DecodeList(raw)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", nil
	}
	return snapshot.CoerceID(items[0]["id"]), nil
}

// IDStrategy treats the snapshot's own identifier as the authoritative key
// and performs a remote existence check by identifier. It requires that
// identifiers be pre-assigned and consistent across deployments; the
// operator keeps that invariant by exporting and importing workflows with
// their ids intact.
type IDStrategy struct{}

// Type returns the strategy type.
func (s *IDStrategy) Type() StrategyType {
	return StrategyTypeID
}

// Resolve implements the Strategy interface for IDStrategy.
func (s *IDStrategy) Resolve(ctx context.Context, remote Remote, kind snapshot.Kind, fields snapshot.Fields) (string, error) {
	id := fields.ID()
	if id == "" {
		return "", nil
	}

	raw, err := remote.Request(ctx, "GET", kind.Path()+"/"+url.PathEscape(id), nil)
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", nil
	}
	return id, nil
}

// listEnvelope is the paged list wrapper some deployments return instead of
// a bare array.
type listEnvelope struct {
	Items []map[string]any `json:"items"`
}

// DecodeList decodes a remote list payload. Both bare arrays and
// {"items": [...]} envelopes are accepted; a null payload decodes to an
// empty list. Anything else is a hard error.
func DecodeList(raw json.RawMessage) ([]map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, errors.NewParseError("json", "", "malformed list response", err)
	}

	switch probe.(type) {
	case nil:
		return nil, nil
	case []any:
		var items []map[string]any
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, errors.NewParseError("json", "", "list elements are not objects", err)
		}
		return items, nil
	case map[string]any:
		var envelope listEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Items == nil {
			return nil, errors.NewParseError("json", "", "response is neither a list nor null", err)
		}
		return envelope.Items, nil
	default:
		return nil, errors.NewParseError("json", "", "response is neither a list nor null", nil)
	}
}
