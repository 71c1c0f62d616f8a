// Package jsexec compiles self-contained, single-argument string transforms
// extracted from player scripts and runs them in an isolated scope. This is
// the one place untrusted dynamic code execution happens; the boundary is kept
// to a single narrow function type so the backing engine stays swappable.
package jsexec

import (
	"fmt"

	"github.com/dop251/goja"
	"github.com/robertkrimen/otto"
)

// Transform is a compiled pure string transform. Execution failures are
// returned, never panicked.
type Transform func(string) (string, error)

// Identity returns the input unchanged. Used as the documented degraded
// outcome when a throttling transform cannot be compiled or run.
func Identity() Transform {
	return func(s string) (string, error) { return s, nil }
}

// Compile builds a callable transform from a self-contained source unit whose
// entry function is named entry. The unit runs in a fresh VM with no access to
// caller state. goja handles current player scripts; otto is kept as a second
// engine because the two disagree on some minified constructs.
func Compile(source, entry string) (Transform, error) {
	if t, err := compileGoja(source, entry); err == nil {
		return t, nil
	}
	return compileOtto(source, entry)
}

func compileGoja(source, entry string) (Transform, error) {
	vm := goja.New()
	if _, err := vm.RunString(source); err != nil {
		return nil, fmt.Errorf("jsexec: compile failed: %w", err)
	}
	fn, ok := goja.AssertFunction(vm.Get(entry))
	if !ok {
		return nil, fmt.Errorf("jsexec: entry %q is not a function", entry)
	}
	return func(arg string) (out string, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("jsexec: execution panic: %v", r)
			}
		}()
		res, err := fn(goja.Undefined(), vm.ToValue(arg))
		if err != nil {
			return "", fmt.Errorf("jsexec: execution failed: %w", err)
		}
		return res.String(), nil
	}, nil
}

func compileOtto(source, entry string) (Transform, error) {
	vm := otto.New()
	if _, err := vm.Run(source); err != nil {
		return nil, fmt.Errorf("jsexec: compile failed: %w", err)
	}
	val, err := vm.Get(entry)
	if err != nil || !val.IsFunction() {
		return nil, fmt.Errorf("jsexec: entry %q is not a function", entry)
	}
	return func(arg string) (string, error) {
		res, err := vm.Call(entry, nil, arg)
		if err != nil {
			return "", fmt.Errorf("jsexec: execution failed: %w", err)
		}
		out, err := res.ToString()
		if err != nil {
			return "", fmt.Errorf("jsexec: transform did not return a string: %w", err)
		}
		return out, nil
	}, nil
}
