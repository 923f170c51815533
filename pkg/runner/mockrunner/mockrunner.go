// Package mockrunner provides a recording stub CommandRunner for tests.
package mockrunner

import (
	"context"
	"strings"
	"sync"

	"github.com/aiyflowers/wslusb/pkg/runner"
)

// Call records one invocation seen by the stub.
type Call struct {
	Name string
	Args []string
	Opts runner.Options
}

// Behavior produces the Result for a single invocation.
type Behavior func(call Call) runner.Result

// Runner dispatches queued behaviors sequentially and records every call.
type Runner struct {
	mu        sync.Mutex
	behaviors []Behavior
	calls     []Call
}

var _ runner.CommandRunner = (*Runner)(nil)

// New constructs a Runner that invokes behaviors in order, one per call.
// Calls beyond the queue return a successful empty Result.
func New(behaviors ...Behavior) *Runner {
	return &Runner{behaviors: behaviors}
}

// Succeed returns a behavior yielding a successful Result with the given stdout.
func Succeed(stdout string) Behavior {
	return func(Call) runner.Result {
		return runner.Result{Succeeded: true, Stdout: stdout}
	}
}

// Fail returns a behavior yielding a failed Result with the given stderr.
func Fail(stderr string) Behavior {
	return func(Call) runner.Result {
		return runner.Result{Stderr: stderr}
	}
}

// Run records the call and dispatches to the next queued behavior.
func (r *Runner) Run(_ context.Context, name string, args []string, opts runner.Options) runner.Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	call := Call{Name: name, Args: append([]string(nil), args...), Opts: opts}
	r.calls = append(r.calls, call)

	if len(r.behaviors) == 0 {
		return runner.Result{Succeeded: true}
	}

	behavior := r.behaviors[0]
	r.behaviors = r.behaviors[1:]

	return behavior(call)
}

// Calls returns a copy of the recorded calls.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Call(nil), r.calls...)
}

// CallCount returns the number of invocations seen so far.
func (r *Runner) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.calls)
}

// CommandLines renders each recorded call as "name arg1 arg2" for simple
// substring assertions.
func (r *Runner) CommandLines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		lines = append(lines, strings.Join(append([]string{c.Name}, c.Args...), " "))
	}

	return lines
}
