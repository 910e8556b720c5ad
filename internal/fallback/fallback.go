// Package fallback retries a failed model call once against a designated
// fallback model when the failure looks like upstream capacity exhaustion.
//
// Every call walks the same machine:
//
//	Primary --ok--> Done
//	Primary --transient, fallback differs--> Fallback
//	Primary --anything else--> Failed (original error)
//	Fallback --ok--> Done
//	Fallback --error--> Failed (fallback error)
package fallback

import (
	"context"
	"errors"
	"strings"

	"scribeflow/internal/schema"
)

type State int

const (
	Primary State = iota
	Fallback
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Primary:
		return "primary"
	case Fallback:
		return "fallback"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Route names the models of one invocation. An empty Fallback disables the
// retry.
type Route struct {
	Primary  string
	Fallback string
}

// CanFallback reports whether a transient primary failure may be retried.
func (r Route) CanFallback() bool {
	return r.Fallback != "" && r.Fallback != r.Primary
}

type Transition struct {
	From  State
	To    State
	Model string
	Err   error
}

type Observer func(Transition)

// Trace records what a Run did.
type Trace struct {
	States []State
	// Model produced the final outcome.
	Model    string
	FellBack bool
}

// transientMarker is the status the provider embeds in the message of a
// "service unavailable" failure.
const transientMarker = "503"

// IsTransient reports whether err should trigger the fallback model.
// Validation failures are never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var vErr *schema.ValidationError
	if errors.As(err, &vErr) {
		return false
	}
	return strings.Contains(err.Error(), transientMarker)
}

// Run calls attempt with the primary model and, on a transient failure, at
// most once more with the fallback model. The error of the last attempt is
// returned unchanged.
func Run[T any](ctx context.Context, route Route, attempt func(context.Context, string) (T, error), observe Observer) (T, Trace, error) {
	var (
		out   T
		err   error
		zero  T
		trace = Trace{States: []State{Primary}}
		state = Primary
	)

	move := func(to State, model string, cause error) {
		if observe != nil {
			observe(Transition{From: state, To: to, Model: model, Err: cause})
		}
		state = to
		trace.States = append(trace.States, to)
	}

	for {
		switch state {
		case Primary:
			trace.Model = route.Primary
			out, err = attempt(ctx, route.Primary)
			switch {
			case err == nil:
				move(Done, route.Primary, nil)
			case IsTransient(err) && route.CanFallback():
				move(Fallback, route.Fallback, err)
			default:
				move(Failed, route.Primary, err)
			}
		case Fallback:
			trace.Model = route.Fallback
			trace.FellBack = true
			out, err = attempt(ctx, route.Fallback)
			if err != nil {
				move(Failed, route.Fallback, err)
			} else {
				move(Done, route.Fallback, nil)
			}
		case Done:
			return out, trace, nil
		case Failed:
			return zero, trace, err
		}
	}
}
