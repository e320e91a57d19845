package pipeline

import (
	"context"
	"errors"
	"slices"

	"github.com/usestring/reqmin/internal/bodyschema"
	"github.com/usestring/reqmin/internal/codec"
	"github.com/usestring/reqmin/internal/reduce"
	"github.com/usestring/reqmin/pkg/contenttype"
	"github.com/usestring/reqmin/pkg/rawhttp"
)

// keptHeaders are never removed by the header stage. Cookies are reduced
// per value in the parameter stage; the others frame the request.
var keptHeaders = map[string]bool{
	"cookie":         true,
	"connection":     true,
	"host":           true,
	"content-length": true,
}

// headers tries removing each header line once, in order. An accepted
// removal shrinks the header list seen by every later trial.
func (r *run) headers(ctx context.Context) error {
	r.stage = StageHeaders

	for i := 1; i < len(r.current.Lines()); {
		line := r.current.Lines()[i]
		name := rawhttp.HeaderName(line)
		if name == "" || keptHeaders[name] {
			i++
			continue
		}

		candidate := r.current.WithoutLine(i)
		ok, err := r.trial(ctx, candidate)
		if err != nil {
			return err
		}
		if !ok {
			i++
			continue
		}
		r.accept(candidate, line)
		r.result.RemovedHeaders = append(r.result.RemovedHeaders, line)
	}
	return nil
}

// params tries removing each removable parameter once and returns the
// structured body format it observed, if any. JSON and XML parameters are
// never removed here; the body stage reduces them as a tree.
func (r *run) params(ctx context.Context) (contenttype.Category, error) {
	r.stage = StageParams

	removable := r.opts.RemovableKinds
	if removable == nil {
		removable = DefaultRemovableKinds
	}

	var sawJSON, sawXML bool
	for _, p := range r.current.Parameters() {
		switch p.Kind {
		case rawhttp.ParamJSON:
			sawJSON = true
			continue
		case rawhttp.ParamXML:
			sawXML = true
			continue
		}
		if !slices.Contains(removable, p.Kind) {
			continue
		}

		candidate, err := r.current.RemoveParameter(p)
		if err != nil {
			r.log.Debug("parameter not removable", "stage", r.stage, "param", p.String(), "error", err)
			continue
		}
		if p.Kind == rawhttp.ParamCookie {
			candidate = rawhttp.StripEmptyCookieHeaders(candidate)
		}

		ok, err := r.trial(ctx, candidate)
		if err != nil {
			return "", err
		}
		if ok {
			r.accept(candidate, p.String())
			r.result.RemovedParams = append(r.result.RemovedParams, p)
		}
	}

	switch {
	case sawJSON:
		return contenttype.JSON, nil
	case sawXML:
		return contenttype.XML, nil
	}
	// A body whose top level has no parameters ("[]", a bare scalar, an
	// empty root element) still declares its format.
	if c := r.current.ContentType(); c == contenttype.JSON || c == contenttype.XML {
		return c, nil
	}
	return contenttype.None, nil
}

// body reduces a JSON or XML body as a tree. The header block is fixed for
// the whole stage; each candidate tree is serialized and sent with a
// recomputed Content-Length.
func (r *run) body(ctx context.Context, format contenttype.Category) error {
	r.stage = StageBody

	indent := r.opts.JSONIndent
	switch {
	case indent == 0:
		indent = DefaultJSONIndent
	case indent < 0:
		indent = 0
	}

	c, ok := codec.For(format, indent)
	if !ok {
		r.result.BodySkipped = "no JSON or XML body"
		return nil
	}
	r.result.BodyFormat = c.Name()

	tree, err := c.Parse(r.current.Body())
	if err != nil {
		r.result.BodySkipped = err.Error()
		r.log.Warn("body stage skipped", "stage", r.stage, "format", c.Name(), "error", err)
		return nil
	}

	base := r.current
	checkSchema := r.validator != nil && format == contenttype.JSON

	// The predicate cannot return an error, so a fatal trial error cancels
	// the stage context and is recovered as its cause.
	stageCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	test := func(v reduce.Value) bool {
		raw, err := c.Encode(v)
		if err != nil {
			if !errors.Is(err, codec.ErrEmptyDocument) {
				r.log.Debug("candidate not serializable", "stage", r.stage, "error", err)
			}
			r.result.Rejected++
			return false
		}
		if checkSchema {
			if res := r.validator.Validate(raw); !res.Valid {
				r.log.Debug("candidate violates body schema", "stage", r.stage, "errors", res.Errors)
				r.result.Rejected++
				return false
			}
		}

		candidate := base.WithBody(raw)
		ok, err := r.trial(stageCtx, candidate)
		if err != nil {
			cancel(err)
			return false
		}
		if ok {
			r.accept(candidate, "")
		}
		return ok
	}

	reduced, stats, err := reduce.Reduce(stageCtx, tree, test)
	r.log.Debug("body reduced", "stage", r.stage, "format", c.Name(), "trials", stats.Trials, "removed", stats.Removed)
	if cause := context.Cause(stageCtx); cause != nil && ctx.Err() == nil {
		return cause
	}
	if err != nil {
		return err
	}

	if format == contenttype.JSON {
		r.result.BodySchema = bodyschema.Infer(reduced)
	}
	return nil
}
