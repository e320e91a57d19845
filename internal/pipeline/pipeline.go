// Package pipeline minimizes a raw HTTP request against a live target.
//
// A run sends the unmodified request twice to learn which response
// attributes are stable, then shrinks the request in three stages: headers,
// then parameters, then a JSON or XML body. Every trial is one round trip;
// a trial is accepted when the response still reproduces every stable
// attribute, and the accepted request becomes the input of all later
// trials. Trials never run in parallel.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/usestring/reqmin/internal/bodyschema"
	"github.com/usestring/reqmin/internal/compare"
	"github.com/usestring/reqmin/internal/markers"
	"github.com/usestring/reqmin/internal/oracle"
	"github.com/usestring/reqmin/pkg/rawhttp"
)

// Transport sends one raw request and returns the parsed response.
type Transport interface {
	Send(ctx context.Context, target rawhttp.Target, raw []byte) (*rawhttp.Response, error)
}

// Stage names a phase of a run.
type Stage string

const (
	StageBaseline Stage = "baseline"
	StageHeaders  Stage = "headers"
	StageParams   Stage = "params"
	StageBody     Stage = "body"
)

// DefaultRemovableKinds are the parameter kinds the parameter stage tries
// to remove.
var DefaultRemovableKinds = []rawhttp.ParamKind{rawhttp.ParamURL, rawhttp.ParamBody, rawhttp.ParamCookie}

// DefaultJSONIndent is the indentation of re-serialized JSON bodies.
const DefaultJSONIndent = 4

// Update describes one accepted trial.
type Update struct {
	Stage   Stage
	Request *rawhttp.Request
	Removed string // header line, parameter, or "" for body trials
}

// Progress is a snapshot of a running minimization.
type Progress struct {
	Stage    Stage `json:"stage"`
	Trials   int   `json:"trials"`
	Accepted int   `json:"accepted"`
}

// Options configure a run. The zero value is usable.
type Options struct {
	// RunID is attached to every log record as task_id.
	RunID string

	// IgnoreAttributes are removed from the baseline invariants. Nil means
	// compare.DefaultIgnoreAttributes.
	IgnoreAttributes []string

	Markers []markers.Marker

	// RemovableKinds limits the parameter stage. Nil means
	// DefaultRemovableKinds.
	RemovableKinds []rawhttp.ParamKind

	// BodySchema is an optional JSON Schema every JSON body candidate must
	// satisfy before it is sent.
	BodySchema []byte

	// AbortOnTransportError ends the run on the first failed trial. By
	// default a failed trial is counted, treated as not equivalent, and the
	// run keeps going.
	AbortOnTransportError bool

	// JSONIndent is the indentation of serialized JSON bodies; 0 means
	// DefaultJSONIndent, negative means compact.
	JSONIndent int

	// OnAccept is called after every accepted trial, in order, on the
	// run's goroutine.
	OnAccept func(Update)

	// OnProgress is called after every trial.
	OnProgress func(Progress)

	Logger *slog.Logger
}

// Result is the outcome of a run.
type Result struct {
	Original *rawhttp.Request `json:"-"`
	Request  *rawhttp.Request `json:"-"`

	Invariants      []string            `json:"invariants"`
	RemovedHeaders  []string            `json:"removed_headers"`
	RemovedParams   []rawhttp.Parameter `json:"removed_params"`
	BodyFormat      string              `json:"body_format,omitempty"`
	BodySkipped     string              `json:"body_skipped,omitempty"`
	BodySchema      *jsonschema.Schema  `json:"body_schema,omitempty"`
	Trials          int                 `json:"trials"`
	Accepted        int                 `json:"accepted"`
	Rejected        int                 `json:"rejected"`
	TransportErrors int                 `json:"transport_errors"`
	Duration        time.Duration       `json:"duration"`
}

// Minimizer runs minimizations over one transport. It holds no per-run
// state and may be shared by concurrent runs.
type Minimizer struct {
	transport Transport
}

// New creates a Minimizer.
func New(t Transport) (*Minimizer, error) {
	if t == nil {
		return nil, ErrNoTransport
	}
	return &Minimizer{transport: t}, nil
}

// Run minimizes req against target.
//
// On cancellation, and when a trial transport error aborts the run, the
// result so far is returned together with the error: Result.Request is the
// last accepted request. Environment and baseline errors return a nil
// result.
func (m *Minimizer) Run(ctx context.Context, target rawhttp.Target, req *rawhttp.Request, opts Options) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: no request", ErrInvalidRequest)
	}
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	compiled, err := markers.CompileAll(opts.Markers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var validator *bodyschema.Validator
	if len(opts.BodySchema) > 0 {
		validator, err = bodyschema.NewValidator(opts.BodySchema)
		if err != nil {
			return nil, fmt.Errorf("%w: body schema: %v", ErrInvalidRequest, err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RunID != "" {
		logger = logger.With("task_id", opts.RunID)
	}

	r := &run{
		transport: m.transport,
		target:    target,
		opts:      opts,
		validator: validator,
		log:       logger,
		current:   req,
		result: &Result{
			Original:       req,
			RemovedHeaders: []string{},
			RemovedParams:  []rawhttp.Parameter{},
		},
	}

	start := time.Now()
	err = r.execute(ctx, compare.NewEngine(nil, compiled))
	r.result.Duration = time.Since(start)
	r.result.Request = r.current

	var baseErr *BaselineError
	if errors.As(err, &baseErr) {
		return nil, err
	}
	if err != nil {
		r.log.Warn("minimization stopped", "error", err, "trials", r.result.Trials, "accepted", r.result.Accepted)
		return r.result, err
	}

	r.log.Info("minimization finished",
		"trials", r.result.Trials,
		"accepted", r.result.Accepted,
		"bytes_before", len(req.Bytes()),
		"bytes_after", len(r.current.Bytes()),
		"duration_ms", r.result.Duration.Milliseconds(),
	)
	return r.result, nil
}

// run is the single-owner state of one minimization.
type run struct {
	transport Transport
	target    rawhttp.Target
	opts      Options
	validator *bodyschema.Validator
	log       *slog.Logger
	oracle    *oracle.Oracle

	stage   Stage
	current *rawhttp.Request
	result  *Result
}

func (r *run) execute(ctx context.Context, engine *compare.Engine) error {
	if err := r.baseline(ctx, engine); err != nil {
		return err
	}
	if err := r.headers(ctx); err != nil {
		return err
	}
	format, err := r.params(ctx)
	if err != nil {
		return err
	}
	return r.body(ctx, format)
}

// baseline sends the unmodified request twice, one after the other, and
// builds the oracle from the two responses.
func (r *run) baseline(ctx context.Context, engine *compare.Engine) error {
	r.stage = StageBaseline
	raw := r.current.Bytes()

	var resps [2]*rawhttp.Response
	for i := range resps {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, err := r.transport.Send(ctx, r.target, raw)
		if err != nil {
			return &BaselineError{Attempt: i + 1, Err: err}
		}
		resps[i] = resp
	}

	ignore := r.opts.IgnoreAttributes
	if ignore == nil {
		ignore = compare.DefaultIgnoreAttributes
	}
	r.oracle = oracle.FromBaselines(engine, resps[0], resps[1], ignore)
	r.result.Invariants = r.oracle.Invariants().Names()

	if r.oracle.Invariants().Len() == 0 {
		r.log.Warn("baseline responses share no attributes; every trial will be accepted")
	}
	r.log.Debug("baseline established", "invariants", len(r.result.Invariants), "status", resps[0].StatusCode)
	return nil
}

// trial sends candidate and reports whether the response is equivalent to
// the baseline. A transport error is not equivalent; it is returned only
// when the run must stop.
func (r *run) trial(ctx context.Context, candidate *rawhttp.Request) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.result.Trials++
	n := r.result.Trials
	resp, err := r.transport.Send(ctx, r.target, candidate.Bytes())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		r.result.TransportErrors++
		r.log.Warn("trial failed", "stage", r.stage, "trial", n, "error", err)
		r.progress()
		if r.opts.AbortOnTransportError {
			return false, &TrialError{Stage: r.stage, Trial: n, Err: err}
		}
		return false, nil
	}

	ok := r.oracle.IsEquivalent(resp)
	if ok {
		r.log.Debug("trial", "stage", r.stage, "trial", n, "accepted", true)
	} else {
		r.log.Debug("trial", "stage", r.stage, "trial", n, "accepted", false, "lost", r.oracle.Lost(resp))
	}
	r.progress()
	return ok, nil
}

// accept makes req the current request.
func (r *run) accept(req *rawhttp.Request, removed string) {
	r.current = req
	r.result.Accepted++
	if r.opts.OnAccept != nil {
		r.opts.OnAccept(Update{Stage: r.stage, Request: req, Removed: removed})
	}
	r.progress()
}

func (r *run) progress() {
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(Progress{Stage: r.stage, Trials: r.result.Trials, Accepted: r.result.Accepted})
	}
}
