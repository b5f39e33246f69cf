// Package proctest provides a procrun.Runner that records invocations instead of running them.
package proctest

import (
	"context"
	"sync"

	"github.com/joba14/lasm/tools/pkg/procrun"
)

// Handler decides the outcome of a recorded command.
type Handler func(cmd procrun.Command) (string, procrun.Result)

// Recorder is a fake procrun.Runner. Commands are matched against handlers by program name;
// unmatched commands succeed with empty output.
type Recorder struct {
	mu       sync.Mutex
	handlers map[string]Handler
	Calls    []procrun.Command
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{handlers: make(map[string]Handler)}
}

// On registers h for every command whose Name equals name.
func (r *Recorder) On(name string, h Handler) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
	return r
}

// Exit is a Handler that always returns code.
func Exit(code int) Handler {
	return func(procrun.Command) (string, procrun.Result) {
		return "", procrun.Result{Code: code}
	}
}

// Print is a Handler that succeeds and returns out as captured stdout.
func Print(out string) Handler {
	return func(procrun.Command) (string, procrun.Result) {
		return out, procrun.Result{}
	}
}

func (r *Recorder) handle(cmd procrun.Command) (string, procrun.Result) {
	r.mu.Lock()
	r.Calls = append(r.Calls, cmd)
	h, ok := r.handlers[cmd.Name]
	r.mu.Unlock()

	if !ok {
		return "", procrun.Result{}
	}
	return h(cmd)
}

// Run implements procrun.Runner.
func (r *Recorder) Run(_ context.Context, cmd procrun.Command) procrun.Result {
	_, res := r.handle(cmd)
	return res
}

// Output implements procrun.Runner.
func (r *Recorder) Output(_ context.Context, cmd procrun.Command) (string, procrun.Result) {
	return r.handle(cmd)
}

// Argvs returns the argv of every recorded call.
func (r *Recorder) Argvs() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([][]string, len(r.Calls))
	for idx, cmd := range r.Calls {
		result[idx] = cmd.Argv()
	}
	return result
}

// Names returns the program name of every recorded call.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]string, len(r.Calls))
	for idx, cmd := range r.Calls {
		result[idx] = cmd.Name
	}
	return result
}
