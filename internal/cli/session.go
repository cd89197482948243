package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/kitty/internal/engine"
	"github.com/roach88/kitty/internal/store"
	"github.com/roach88/kitty/internal/trust"
)

// session is one command's connection to the database: the store, an
// engine over it and the trust tracker draining completed circles.
type session struct {
	store   *store.Store
	engine  *engine.Engine
	tracker *trust.Tracker
	logger  *slog.Logger

	group *errgroup.Group
}

// IDs overrides the ID generator of sessions opened by the CLI. Tests set
// it for deterministic output.
var IDs engine.IDGenerator = engine.UUIDv7Generator{}

// openSession opens the database and starts the trust tracker.
func openSession(ctx context.Context, opts *RootOptions, logger *slog.Logger) (*session, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	logger.Debug("database opened", "path", opts.Database)

	tracker := trust.NewTracker(st, trust.WithLogger(logger))
	s := &session{
		store:   st,
		tracker: tracker,
		logger:  logger,
		engine: engine.New(st,
			engine.WithLogger(logger),
			engine.WithIDGenerator(IDs),
			engine.WithTracker(tracker),
		),
		group: &errgroup.Group{},
	}
	s.group.Go(func() error { return tracker.Run(ctx) })
	return s, nil
}

// Close drains pending trust updates, then closes the database.
func (s *session) Close() error {
	s.tracker.Close()
	runErr := s.group.Wait()
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if runErr != nil {
		runErr = fmt.Errorf("trust tracker: %w", runErr)
	}
	return errors.Join(runErr, s.store.Close())
}

// withSession runs fn inside a session and reports its error through f.
func withSession(cmd *cobra.Command, opts *RootOptions, message string, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := formatterFor(opts, cmd)
	s, err := openSession(ctx, opts, newLogger(opts, cmd.ErrOrStderr()))
	if err != nil {
		return f.Fail(message, err)
	}
	err = fn(ctx, s)
	if cerr := s.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return f.Fail(message, err)
	}
	return nil
}
