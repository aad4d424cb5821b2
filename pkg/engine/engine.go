// Package engine provides the Lisp scripting layer for weave
// generation. It wraps zygomys in a sandboxed environment whose
// builtins construct solids and run weave pipelines against a
// geometry kernel.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/Boceto3D/Weave-B3D/pkg/kernel"
	"github.com/Boceto3D/Weave-B3D/pkg/weave"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Result bundles everything a script produced: the weave runs it
// executed and the files it exported.
type Result struct {
	Weaves  []*weave.WeaveResult
	Exports []string
}

// Engine wraps the zygomys interpreter for weave scripting.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	kernel kernel.Kernel

	// Orchestrate runs one weave. Overridable for tests; defaults to
	// a weave.Orchestrator on the engine's kernel.
	Orchestrate func(ctx context.Context, body kernel.Solid, params weave.Parameters, hugSurface bool) (*weave.WeaveResult, error)

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates an Engine whose builtins operate on k.
func NewEngine(k kernel.Kernel) *Engine {
	e := &Engine{kernel: k}
	e.Orchestrate = func(ctx context.Context, body kernel.Solid, params weave.Parameters, hugSurface bool) (*weave.WeaveResult, error) {
		o := weave.NewOrchestrator(k)
		o.HugSurface = hugSurface
		return o.Run(ctx, body, params)
	}
	return e
}

// Evaluate runs a weave script and returns what it produced.
// Each call creates a fresh zygomys sandbox for deterministic
// evaluation.
//
// Return semantics:
//   - On success: result + nil errors + nil error
//   - On parse/eval failure: nil result + eval errors + nil error
//   - On fatal failure (timeout, panic): nil + nil + error
func (e *Engine) Evaluate(ctx context.Context, source string) (*Result, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := e.evaluate(ctx, source)
		ch <- evalResult{result: res, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(ctx context.Context, source string) (*Result, []EvalError, error) {
	// Empty source is a valid program that produces nothing.
	if strings.TrimSpace(source) == "" {
		return &Result{}, nil, nil
	}

	// Sandbox mode prevents user code from reaching the filesystem or
	// syscalls; only the registered builtins touch the outside world.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	session := &session{ctx: ctx, engine: e, result: &Result{}}
	registerBuiltins(env, session)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	_, err = env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	return session.result, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError
// values, extracting line numbers when the message carries them.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}
	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
