// Package reconcile implements the upsert driver: for each entity snapshot
// it sanitizes, resolves identity against the target deployment, and issues
// an idempotent create-or-update. Running the same batch twice against the
// same target produces no duplicates; the second run resolves every entity
// to "exists" and updates in place.
package reconcile

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/stackmill/confsync/pkg/errors"
	"github.com/stackmill/confsync/pkg/identity"
	"github.com/stackmill/confsync/pkg/logging"
	"github.com/stackmill/confsync/pkg/snapshot"
)

// Engine drives create-or-update against one target deployment.
type Engine struct {
	remote identity.Remote
	log    zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-entity diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = logger
	}
}

// New creates an engine writing to the given remote deployment.
func New(remote identity.Remote, opts ...Option) *Engine {
	e := &Engine{
		remote: remote,
		log:    *logging.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Upsert reconciles one snapshot against the target deployment and reports
// whether it was created or updated.
func (e *Engine) Upsert(ctx context.Context, snap snapshot.Snapshot) (Action, error) {
	name := snap.Fields.Name()
	if name == "" {
		return "", errors.NewValidationError("name", nil, "entity snapshot has no name")
	}

	body := snapshot.Sanitize(snap.Fields, snap.Kind, snapshot.DirectionImport)

	strategy := identity.ForKind(snap.Kind)
	id, err := strategy.Resolve(ctx, e.remote, snap.Kind, body)
	if err != nil {
		return "", err
	}

	if id != "" {
		path := snap.Kind.Path() + "/" + url.PathEscape(id)
		if _, err := e.remote.Request(ctx, "PUT", path, body); err != nil {
			return "", err
		}
		e.log.Debug().
			Str("kind", snap.Kind.String()).
			Str("name", name).
			Str("id", id).
			Msg("entity updated in place")
		return ActionUpdated, nil
	}

	// The remote assigns its own identifier on create. Workflows are the
	// exception: their body keeps the local id so identifiers stay stable
	// across deployments. Any stray id on other kinds must not leak into a
	// foreign deployment.
	if snap.Kind != snapshot.KindWorkflow {
		delete(body, "id")
	}

	if _, err := e.remote.Request(ctx, "POST", snap.Kind.Path(), body); err != nil {
		return "", err
	}
	e.log.Debug().
		Str("kind", snap.Kind.String()).
		Str("name", name).
		Msg("entity created")
	return ActionCreated, nil
}

// UpsertBatch reconciles a batch of snapshots sequentially. Each entity's
// outcome is independent: a failure is logged with the entity's name and
// file, counted, and the batch continues. The batch always completes and
// returns full tallies.
func (e *Engine) UpsertBatch(ctx context.Context, snaps []snapshot.Snapshot) *Result {
	result := &Result{}

	for _, snap := range snaps {
		action, err := e.Upsert(ctx, snap)
		if err != nil {
			e.log.Error().
				Err(err).
				Str("kind", snap.Kind.String()).
				Str("name", snap.Fields.Name()).
				Str("file", snap.File).
				Msg("entity upsert failed")
			result.AddFailure(snap.Fields.Name(), snap.File, err)
			continue
		}
		result.Record(action)
	}

	return result
}
