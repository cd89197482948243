package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/kitty/internal/circle"
	"github.com/roach88/kitty/internal/compiler"
	"github.com/roach88/kitty/internal/engine"
	"github.com/roach88/kitty/internal/model"
	"github.com/roach88/kitty/internal/store"
	"github.com/roach88/kitty/internal/testutil"
	"github.com/roach88/kitty/internal/trust"
)

// Harness executes one scenario against a real engine.
// It runs scenarios with a fake clock and sequential request IDs.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	tracker *trust.Tracker
	clock   *testutil.FakeClock
	logger  *slog.Logger

	circleID string
	requests map[string]string // withdraw label -> request ID
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
//  1. Create fresh in-memory database, engine and trust tracker
//  2. Compile the scenario's CUE circle and create it
//  3. Execute steps, checking each expectation
//  4. Drain the trust tracker
//  5. Evaluate assertions
//
// A step that misses its expectation fails the result; Run only returns
// an error when the scenario cannot be executed at all.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	start := scenario.Start
	if start.IsZero() {
		start = DefaultStart
	}
	clock := testutil.NewFakeClock(start)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	tracker := trust.NewTracker(st, trust.WithLogger(logger), trust.WithClock(clock.Now))

	h := &Harness{
		store:   st,
		tracker: tracker,
		clock:   clock,
		logger:  logger,
		engine: engine.New(st,
			engine.WithLogger(logger),
			engine.WithClock(clock.Now),
			engine.WithIDGenerator(engine.NewSequenceGenerator("req")),
			engine.WithTracker(tracker),
		),
		requests: make(map[string]string),
	}

	var g errgroup.Group
	g.Go(func() error { return tracker.Run(ctx) })

	result := NewResult()
	runErr := h.execute(ctx, scenario, result)

	tracker.Close()
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = fmt.Errorf("trust tracker: %w", err)
	}
	if runErr != nil {
		return nil, runErr
	}

	actx := &AssertionContext{
		Ctx:      ctx,
		Store:    st,
		Engine:   h.engine,
		Tracker:  tracker,
		CircleID: h.circleID,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, scenario *Scenario, result *Result) error {
	defs, err := compiler.CompileSource(scenario.Name+".cue", []byte(scenario.Circle))
	if err != nil {
		return fmt.Errorf("compile circle: %w", err)
	}
	if len(defs) != 1 {
		return fmt.Errorf("scenario must declare exactly one circle, found %d", len(defs))
	}
	id, err := h.engine.Create(ctx, defs[0].Config)
	if err != nil {
		return fmt.Errorf("create circle: %w", err)
	}
	h.circleID = id
	result.CircleID = id
	result.AddTrace(TraceEvent{Op: "create", Outcome: OutcomeOK, Seq: 1})

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i+1, step, result); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}

	final, err := h.engine.View(ctx, id, "")
	if err != nil {
		return fmt.Errorf("final view: %w", err)
	}
	result.Final = &final
	return nil
}

// executeStep runs one step and checks its expectation. Circle errors are
// outcomes; any other error aborts the scenario.
func (h *Harness) executeStep(ctx context.Context, n int, step Step, result *Result) error {
	before, err := h.store.LastSeq(ctx, h.circleID)
	if err != nil {
		return err
	}

	out, err := h.dispatch(ctx, step)
	ev := TraceEvent{Step: n, Op: step.Op, Member: step.Member, Outcome: OutcomeOK}
	if err != nil {
		code := circle.CodeOf(err)
		if code == "" {
			return err
		}
		ev.Outcome = string(code)
	}

	after, err := h.store.LastSeq(ctx, h.circleID)
	if err != nil {
		return err
	}
	if after != before {
		ev.Seq = after
	}
	result.AddTrace(ev)

	h.logger.Debug("step executed", "step", n, "op", step.Op, "outcome", ev.Outcome, "seq", ev.Seq)
	checkExpect(n, step, ev.Outcome, out, result)
	return nil
}

// dispatch maps a step onto the engine API.
func (h *Harness) dispatch(ctx context.Context, step Step) (any, error) {
	id := h.circleID
	switch step.Op {
	case OpStart:
		return nil, h.engine.Start(ctx, id)
	case OpContribute:
		return h.engine.Contribute(ctx, id, step.Member, model.Money(step.Amount), step.Cycle)
	case OpPayout:
		return h.engine.RecordPayout(ctx, id, step.Member)
	case OpBid:
		return h.engine.SubmitBid(ctx, id, step.Member, model.Pct(step.Discount))
	case OpResolve:
		return h.engine.ResolveAuction(ctx, id)
	case OpAdvance:
		return h.engine.AdvanceCycle(ctx, id)
	case OpWithdraw:
		req, err := h.engine.RequestWithdrawal(ctx, id, step.Member, model.Money(step.Amount), step.Reason)
		if err == nil && step.As != "" {
			h.requests[step.As] = req.ID
		}
		return req, err
	case OpVote:
		return h.engine.CastVote(ctx, id, h.requestID(step.Request), step.Member, step.Approve)
	case OpDecide:
		return h.engine.Decide(ctx, id, h.requestID(step.Request), step.Member, step.Approve)
	case OpView:
		return h.engine.View(ctx, id, step.Member)
	case OpWait:
		d, err := time.ParseDuration(step.Duration)
		if err != nil {
			return nil, err
		}
		h.clock.Advance(d)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown op %q", step.Op)
	}
}

func (h *Harness) requestID(ref string) string {
	if id, ok := h.requests[ref]; ok {
		return id
	}
	return ref
}

func checkExpect(n int, step Step, outcome string, out any, result *Result) {
	want := OutcomeOK
	if step.Expect != nil && step.Expect.Code != "" {
		want = step.Expect.Code
	}
	if outcome != want {
		result.AddError(fmt.Sprintf("step %d (%s %s): expected %s, got %s", n, step.Op, step.Member, want, outcome))
		return
	}
	if step.Expect == nil || len(step.Expect.Result) == 0 || outcome != OutcomeOK {
		return
	}
	if diff := MatchSubset(step.Expect.Result, out); diff != "" {
		result.AddError(fmt.Sprintf("step %d (%s %s): result mismatch: %s", n, step.Op, step.Member, diff))
	}
}
