package server

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/oshokin/smart-home/internal/audit"
	domain "github.com/oshokin/smart-home/internal/domain/house"
	"github.com/oshokin/smart-home/internal/logger"
	"github.com/oshokin/smart-home/internal/repository/history"
)

// service encapsulates the controllers of every house and the history orchestration.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// controllers maps house names to their controllers.
	controllers map[string]*controller
	// names lists the houses in a stable order.
	names []string
	// repo records snapshots; nil disables history.
	repo history.Repository
	// clock stamps history records.
	clock audit.Clock
}

// newService wires the controllers and resumes light accounting from the latest history.
func newService(ctx context.Context, controllers []*controller, repository history.Repository, clock audit.Clock) (*service, error) {
	s := &service{
		controllers: make(map[string]*controller, len(controllers)),
		names:       make([]string, 0, len(controllers)),
		repo:        repository,
		clock:       clock,
	}

	for _, c := range controllers {
		s.controllers[c.name] = c
		s.names = append(s.names, c.name)
	}

	slices.Sort(s.names)

	if repository == nil {
		return s, nil
	}

	latest, err := repository.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	for name, record := range latest {
		if c, ok := s.controllers[name]; ok {
			c.restoreLightsOn(record.LightsOn)
		}
	}

	return s, nil
}

// Houses returns the managed house names.
func (s *service) Houses(context.Context) []string {
	return slices.Clone(s.names)
}

// Snapshot returns the current status of a house.
func (s *service) Snapshot(ctx context.Context, name string) (domain.Snapshot, error) {
	c, err := s.controller(name)
	if err != nil {
		return domain.Snapshot{}, err
	}

	logger.DebugKV(ctx, "House state requested", "house", name)

	return c.Snapshot(), nil
}

// Apply runs a user command against a house.
func (s *service) Apply(ctx context.Context, name string, overlay domain.State) (domain.Snapshot, error) {
	c, err := s.controller(name)
	if err != nil {
		return domain.Snapshot{}, err
	}

	ctx = logger.WithKV(ctx, "house", name)

	snap := c.Apply(ctx, overlay)

	logger.InfoKV(ctx, "House state updated", "connected", snap.Connected, "log_lines", len(snap.Log))

	return snap, nil
}

func (s *service) controller(name string) (*controller, error) {
	c, ok := s.controllers[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, domain.ErrHouseNotFound)
	}

	return c, nil
}

// poll refreshes one house on its own interval until ctx is done.
func poll(ctx context.Context, c *controller) {
	ctx = logger.WithKV(ctx, "house", c.name)

	every(ctx, c.interval, func(ctx context.Context) {
		if err := c.Refresh(ctx); err != nil {
			logger.WarnKV(ctx, "Refresh failed", "error", err)
		}
	})
}

// record saves a history snapshot of every house.
func (s *service) record(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	var errs []error

	for _, name := range s.names {
		snap := s.controllers[name].Snapshot()
		if snap.UpdatedAt.IsZero() {
			continue
		}

		rec := history.NewRecord(name, snap.GroupExperiment, snap.LightsOn, snap.State, s.clock.Now())
		if err := s.repo.Save(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// close releases every hub connection.
func (s *service) close() {
	for _, c := range s.controllers {
		_ = c.Close()
	}
}

// every runs fn immediately and then on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
