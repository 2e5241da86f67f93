// Package resolve maps person names to verified Mattermost usernames.
package resolve

import (
	"context"
	"log/slog"

	"github.com/etp-webadmin/etapprover/internal/models"
	"github.com/etp-webadmin/etapprover/internal/username"
)

// Directory is the user-lookup capability of the messaging platform. It
// reports whether an exact username exists. Implementations may fail on
// transport errors; the resolver treats any error as "not confirmed".
type Directory interface {
	LookupUser(ctx context.Context, name string) (bool, error)
}

// Result is the outcome of resolving one name.
type Result struct {
	// Input is the name that was resolved.
	Input models.PersonName

	// Username is the resolved account, empty when unresolved.
	Username string

	// Attempted lists every candidate tried against the directory, in the
	// order they were tried. Empty on an override hit or when no directory
	// was available.
	Attempted []username.Candidate
}

// Resolved reports whether a username was found.
func (r Result) Resolved() bool { return r.Username != "" }

// Resolver turns person names into usernames using the override table first,
// then generated candidates verified against the directory.
//
// The directory may be nil (no verification capability). In that case the
// top-ranked candidate is used as a best-effort guess. Once a directory is
// present the resolver never guesses: if no candidate verifies, the name
// stays unresolved.
type Resolver struct {
	overrides Overrides
	dir       Directory
}

// New creates a Resolver. dir may be nil to disable verification.
func New(overrides Overrides, dir Directory) *Resolver {
	return &Resolver{overrides: overrides, dir: dir}
}

// Resolve resolves a single name.
func (r *Resolver) Resolve(ctx context.Context, name models.PersonName) Result {
	if user, ok := r.overrides.Lookup(name); ok {
		slog.Info("username resolved via override", "name", name.String(), "username", user)
		return Result{Input: name, Username: user}
	}

	candidates := username.Variants(name)
	if len(candidates) == 0 {
		slog.Warn("name produced no username candidates", "name", name.String())
		return Result{Input: name}
	}

	if r.dir == nil {
		best := candidates[0].Value
		slog.Info("no directory available, using top-ranked candidate",
			"name", name.String(), "username", best)
		return Result{Input: name, Username: best}
	}

	for _, c := range candidates {
		found, err := r.dir.LookupUser(ctx, c.Value)
		if err != nil {
			// Lookup failure only rules out this candidate.
			slog.Warn("directory lookup failed, candidate not confirmed",
				"candidate", c.Value, "error", err)
			continue
		}
		if found {
			slog.Info("username verified", "name", name.String(), "username", c.Value)
			return Result{Input: name, Username: c.Value, Attempted: candidates}
		}
	}

	slog.Warn("no candidate verified for name",
		"name", name.String(), "attempted", username.Values(candidates))
	return Result{Input: name, Attempted: candidates}
}

// ResolveAll resolves a batch of names, preserving input order. A name that
// stays unresolved does not affect the others.
func (r *Resolver) ResolveAll(ctx context.Context, names []models.PersonName) []Result {
	results := make([]Result, len(names))
	for i, name := range names {
		results[i] = r.Resolve(ctx, name)
	}
	return results
}
