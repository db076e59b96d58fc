package mapview

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"foodfinder/internal/adapters/observability"
	"foodfinder/internal/domain"
)

// CanStartDirections reports whether a direction flow could start right
// now, without committing to one. The flow re-checks under its own lock;
// this exists so callers can reject obvious no-ops synchronously.
func (v *View) CanStartDirections() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch {
	case v.closed:
		return ErrClosed
	case v.selected == nil:
		return ErrNoSelection
	case v.dir.active:
		return ErrDirectionActive
	}
	return nil
}

// StartDirections runs the direction overlay flow: narrow the layer to the
// selected restaurant, wait for the one-shot geolocation fix the client
// delivers, then fetch one driving route. The flow suspends twice; after
// each suspension it re-checks the generation it started with, so a cancel
// between any two steps discards the stale continuation instead of writing
// through it.
func (v *View) StartDirections(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	if v.selected == nil {
		v.mu.Unlock()
		return ErrNoSelection
	}
	if v.dir.active {
		v.mu.Unlock()
		return ErrDirectionActive
	}

	v.dir.active = true
	v.dir.gen++
	gen := v.dir.gen
	fixCh := make(chan domain.Coords, 1)
	v.dir.fixCh = fixCh
	v.filterTitle = v.selected.Title // visual focus on the destination
	dest := v.selected.Coords()
	destTitle := v.selected.Title
	v.mu.Unlock()

	observability.ObserveDirection("start")

	var fix domain.Coords
	select {
	case <-ctx.Done():
		v.CancelDirections()
		return ctx.Err()
	case got, ok := <-fixCh:
		if !ok {
			return ErrCanceled // canceled while waiting for the fix
		}
		fix = got
	}

	v.mu.Lock()
	if v.closed || !v.dir.active || v.dir.gen != gen {
		v.mu.Unlock()
		observability.ObserveDirection("stale")
		return ErrCanceled
	}
	v.mu.Unlock()

	route, err := v.directions.DrivingRoute(ctx, fix, dest)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.dir.active || v.dir.gen != gen {
		// The route resolved after a cancel; discard it.
		observability.ObserveDirection("stale")
		return ErrCanceled
	}
	if errors.Is(err, domain.ErrNoRoute) {
		log.Warn().Str("destination", destTitle).Msg("no route found")
		observability.ObserveDirection("no_route")
		return nil // overlay absent, user cancels out of direction mode
	}
	if err != nil {
		log.Error().Err(err).Str("destination", destTitle).Msg("directions request failed")
		return err
	}

	v.dir.distance = &Distance{Value: route.DistanceMeters, Unit: "meters"}
	// One route source per view: a second route replaces the geometry in
	// place rather than stacking layers.
	v.dir.route = lineFrom(route)
	v.camera = fitBounds(route, routeFitPadding)
	observability.ObserveDirection("route")
	return nil
}

// DeliverFix resolves the pending geolocation request with the client's
// position. A fix arriving with no flow waiting (late, or after cancel)
// is discarded.
func (v *View) DeliverFix(fix domain.Coords) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	if !v.dir.active || v.dir.fixCh == nil {
		return ErrNoPendingFix
	}
	v.dir.fixCh <- fix // buffered, one-shot
	v.dir.fixCh = nil
	return nil
}

// CancelDirections ends direction mode: the route overlay and distance go
// away and the full point layer comes back with default coloring. The
// cancellation is cooperative; an outstanding route request is not
// aborted, its result is discarded by the bumped generation.
func (v *View) CancelDirections() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || !v.dir.active {
		return
	}
	v.cancelDirectionsLocked()
	observability.ObserveDirection("cancel")
}

// cancelDirectionsLocked resets direction state. Caller holds mu.
func (v *View) cancelDirectionsLocked() {
	if !v.dir.active {
		return
	}
	v.dir.active = false
	v.dir.gen++
	if v.dir.fixCh != nil {
		close(v.dir.fixCh) // wake the flow waiting on the fix
		v.dir.fixCh = nil
	}
	v.dir.route = nil
	v.dir.distance = nil
	v.filterTitle = ""
	// Detail panel already closed: the selection has nothing left to
	// anchor, so it goes too.
	if !v.detailShown && v.selected != nil {
		v.highlightTitle = ""
		v.selected = nil
	}
}

func fitBounds(route domain.Route, padding int) *CameraMove {
	if len(route.Geometry) == 0 {
		return nil
	}
	b := [4]float64{route.Geometry[0].Lng, route.Geometry[0].Lat, route.Geometry[0].Lng, route.Geometry[0].Lat}
	for _, c := range route.Geometry[1:] {
		if c.Lng < b[0] {
			b[0] = c.Lng
		}
		if c.Lat < b[1] {
			b[1] = c.Lat
		}
		if c.Lng > b[2] {
			b[2] = c.Lng
		}
		if c.Lat > b[3] {
			b[3] = c.Lat
		}
	}
	return &CameraMove{Action: "fitBounds", Bounds: &b, Padding: padding}
}
