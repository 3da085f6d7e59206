// Package router dispatches a submission to the handler generation whose
// semantic-version range contains the client's version marker.
package router

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"vp-gateway/internal/presentation/models"
	id "vp-gateway/pkg/domain"
	dErrors "vp-gateway/pkg/domain-errors"
)

// Creator is one handler generation.
type Creator interface {
	Create(ctx context.Context, req models.CreateRequest) (*models.CreateResult, error)
	Generation() string
}

type route struct {
	from    *semver.Version
	handler Creator
}

// Router is an ordered dispatch table. Each generation owns the versions from
// its lower bound up to the next registered bound, compared by semver
// precedence, so 2.0.0-beta.1 still sorts below 2.0.0.
type Router struct {
	routes []route
}

// New creates an empty Router.
func New() *Router {
	return &Router{}
}

// Handle registers handler for versions at or above from. Bounds must be
// registered in strictly ascending order.
func (r *Router) Handle(from string, handler Creator) error {
	v, err := semver.StrictNewVersion(from)
	if err != nil {
		return fmt.Errorf("invalid version bound %q: %w", from, err)
	}
	if handler == nil {
		return fmt.Errorf("nil handler for version bound %q", from)
	}
	if n := len(r.routes); n > 0 && v.Compare(r.routes[n-1].from) <= 0 {
		return fmt.Errorf("version bound %q must be above %q", from, r.routes[n-1].from.Original())
	}
	r.routes = append(r.routes, route{from: v, handler: handler})
	return nil
}

// Standard builds the production table: no marker or below 1.0.0 → original,
// below 2.0.0 → legacy, the rest → current. 0.0.0-0 is the lowest semver.
func Standard(original, legacy, current Creator) (*Router, error) {
	r := New()
	for _, rt := range []struct {
		from    string
		handler Creator
	}{
		{"0.0.0-0", original},
		{"1.0.0", legacy},
		{"2.0.0", current},
	} {
		if err := r.Handle(rt.from, rt.handler); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Resolve returns the generation for v. An absent marker resolves as 0.0.0.
// Build metadata does not affect precedence.
func (r *Router) Resolve(v id.ProtocolVersion) (Creator, error) {
	sv := v.Semver()
	for i := len(r.routes) - 1; i >= 0; i-- {
		if sv.Compare(r.routes[i].from) >= 0 {
			return r.routes[i].handler, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeBadRequest, "unsupported version "+v.String())
}

// Create dispatches req to exactly one generation.
func (r *Router) Create(ctx context.Context, req models.CreateRequest) (*models.CreateResult, error) {
	h, err := r.Resolve(req.Version)
	if err != nil {
		return nil, err
	}
	return h.Create(ctx, req)
}
