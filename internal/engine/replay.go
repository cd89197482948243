package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/kitty/internal/circle"
	"github.com/roach88/kitty/internal/model"
)

// Replay rebuilds circle id from its event log alone.
//
// Live operations and replay share one code path: every logged event is
// decoded back into the command that produced it and applied with the
// recorded timestamp. Since circle operations are deterministic in their
// arguments and time, the rebuilt circle equals the one that was stored.
func (e *Engine) Replay(ctx context.Context, id string) (circle.Snapshot, error) {
	events, err := e.store.ReadEvents(ctx, id)
	if err != nil {
		return circle.Snapshot{}, err
	}
	if len(events) == 0 {
		return circle.Snapshot{}, fmt.Errorf("%w: %s", ErrCircleNotFound, id)
	}

	first := events[0]
	if first.Kind != model.EventCircleCreated || first.Seq != 1 {
		return circle.Snapshot{}, &ReplayError{CircleID: id, Seq: first.Seq, Kind: first.Kind,
			Err: fmt.Errorf("log does not start with %s", model.EventCircleCreated)}
	}
	var p createPayload
	if err := json.Unmarshal(first.Payload, &p); err != nil {
		return circle.Snapshot{}, &ReplayError{CircleID: id, Seq: 1, Kind: first.Kind, Err: err}
	}
	cfg, err := p.config(id)
	if err != nil {
		return circle.Snapshot{}, &ReplayError{CircleID: id, Seq: 1, Kind: first.Kind, Err: err}
	}
	c, err := circle.New(cfg, first.At)
	if err != nil {
		return circle.Snapshot{}, &ReplayError{CircleID: id, Seq: 1, Kind: first.Kind, Err: err}
	}

	for i, ev := range events[1:] {
		if want := int64(i + 2); ev.Seq != want {
			return circle.Snapshot{}, &ReplayError{CircleID: id, Seq: ev.Seq, Kind: ev.Kind,
				Err: fmt.Errorf("expected seq %d", want)}
		}
		cmd, err := decodeCommand(ev.Kind, ev.Payload)
		if err != nil {
			return circle.Snapshot{}, &ReplayError{CircleID: id, Seq: ev.Seq, Kind: ev.Kind, Err: err}
		}
		if _, err := cmd.apply(c, ev.At); err != nil {
			return circle.Snapshot{}, &ReplayError{CircleID: id, Seq: ev.Seq, Kind: ev.Kind, Err: err}
		}
	}
	return c.Snapshot(), nil
}

// Verify replays circle id and compares the result with the stored
// snapshot. It returns a *ReplayError when they differ.
func (e *Engine) Verify(ctx context.Context, id string) error {
	rebuilt, err := e.Replay(ctx, id)
	if err != nil {
		return err
	}
	stored, _, err := e.store.LoadCircle(ctx, id)
	if err != nil {
		return err
	}
	equal, err := snapshotsEqual(rebuilt, stored)
	if err != nil {
		return err
	}
	if !equal {
		return &ReplayError{CircleID: id, Err: errDiverged}
	}
	e.logger.Debug("replay verified", "circle", id)
	return nil
}
