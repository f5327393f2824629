package core

// These errors are user errors, not internal errors.  All of them are
// fatal to the current run; nothing here is retried.

import (
	"strconv"
)

// NoResults occurs when a result reference is resolved outside any
// pipeline run (no results table at all, as opposed to an empty one).
type NoResults struct {
	Path string
}

func (e *NoResults) Error() string {
	return `result reference "` + e.Path + `" resolved outside a pipeline run`
}

// UnknownNamespace occurs when an operation's effect names a namespace
// with no registered plugin.
type UnknownNamespace struct {
	Namespace string
}

func (e *UnknownNamespace) Error() string {
	return `no plugin registered for namespace "` + e.Namespace + `"`
}

// UnknownEffect occurs when the namespace resolves but the plugin has
// no handler under the given name.
type UnknownEffect struct {
	Namespace string
	Name      string
}

func (e *UnknownEffect) Error() string {
	return `no effect "` + e.Name + `" in namespace "` + e.Namespace + `"`
}

// BadShape occurs when a tree offered to the decoder or executor is
// none of the shapes the language defines.
type BadShape struct {
	What  string
	Value interface{}
}

func (e *BadShape) Error() string {
	return "bad shape: " + e.What
}

// StepError wraps a failure from one step of a pipeline.  Trail holds
// the outcomes recorded before the failure; side effects already
// applied by earlier steps are not rolled back.
type StepError struct {
	StepIndex int
	Trail     *Executed
	Err       error
}

func (e *StepError) Error() string {
	return "step " + strconv.Itoa(e.StepIndex) + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}
