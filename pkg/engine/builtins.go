package engine

import (
	"context"
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/Boceto3D/Weave-B3D/pkg/kernel"
	"github.com/Boceto3D/Weave-B3D/pkg/stl"
	"github.com/Boceto3D/Weave-B3D/pkg/units"
	"github.com/Boceto3D/Weave-B3D/pkg/weave"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms weave Lisp source code before passing it
// to zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals,
//     which would conflict with user-defined variables of the same
//     name.
//
//  2. Kebab-case to underscore: pattern-only -> pattern_only
//     zygomys does not allow hyphens in identifiers (it interprets
//     them as the subtraction operator). This converts kebab-case
//     identifiers to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line
// comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when the hyphen sits between identifier characters, so a
		// minus operator is left alone.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSolid wraps a kernel.Solid so script expressions can pass bodies
// between builtins.
type sexpSolid struct {
	solid kernel.Solid
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	min, max := s.solid.BoundingBox()
	return fmt.Sprintf("(solid %.1fx%.1fx%.1f)", max[0]-min[0], max[1]-min[1], max[2]-min[2])
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpWeave wraps a completed weave run so it can be exported.
type sexpWeave struct {
	result *weave.WeaveResult
}

func (w *sexpWeave) SexpString(ps *zygo.PrintState) string {
	s := w.result.Summary
	return fmt.Sprintf("(weave-result :succeeded %d :adjusted %d :failed %d)", s.Succeeded, s.Adjusted, s.Failed)
}
func (w *sexpWeave) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword
// argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during
// preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an int from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a bool from a SexpBool. A bare keyword flag (nil
// value) reads as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected bool, got %T (%s)", s, s.SexpString(nil))
}

// toSolid extracts a kernel.Solid from a sexpSolid.
func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.solid, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// session carries per-evaluation state shared by the builtins.
type session struct {
	ctx    context.Context
	engine *Engine
	result *Result
}

// registerBuiltins installs the weave DSL builtins into a zygomys
// environment. Source code must be preprocessed with
// preprocessSource() before evaluation so that :keyword tokens are
// converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *session) {
	k := s.engine.kernel

	// -----------------------------------------------------------------------
	// (box :x 40 :y 40 :z 30)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var dims [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			v, ok := pa.kw[axis]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("box: missing :%s", axis)
			}
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: %s: %w", axis, err)
			}
			dims[i] = f
		}
		return &sexpSolid{solid: k.Box(dims[0], dims[1], dims[2])}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :height 30 :radius 20)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		height, err := requireFloat(pa, "cylinder", "height")
		if err != nil {
			return zygo.SexpNull, err
		}
		radius, err := requireFloat(pa, "cylinder", "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		segments := 0
		if v, ok := pa.kw["segments"]; ok {
			if segments, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: segments: %w", err)
			}
		}
		return &sexpSolid{solid: k.Cylinder(height, radius, segments)}, nil
	})

	// -----------------------------------------------------------------------
	// (translate solid :x 1 :y 2 :z 3)
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("translate requires a solid argument")
		}
		solid, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		var offs [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			if v, ok := pa.kw[axis]; ok {
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("translate: %s: %w", axis, err)
				}
				offs[i] = f
			}
		}
		return &sexpSolid{solid: k.Translate(solid, offs[0], offs[1], offs[2])}, nil
	})

	// -----------------------------------------------------------------------
	// (union a b)
	// -----------------------------------------------------------------------
	env.AddFunction("union", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("union requires at least two solids")
		}
		acc, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("union: %w", err)
		}
		for _, arg := range args[1:] {
			next, err := toSolid(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("union: %w", err)
			}
			acc = k.Union(acc, next)
		}
		return &sexpSolid{solid: acc}, nil
	})

	// -----------------------------------------------------------------------
	// (weave body :waves 6 :amplitude 1.5 :phase 120
	//             :thickness 0.8 :height 0.8
	//             :offset 0 :pattern-only true :hug-surface true)
	// -----------------------------------------------------------------------
	env.AddFunction("weave", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("weave requires a body argument")
		}
		body, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("weave: %w", err)
		}

		params := weave.Parameters{}
		if v, ok := pa.kw["waves"]; ok {
			if params.WaveCount, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("weave: waves: %w", err)
			}
		}
		floats := []struct {
			name string
			dst  *units.Length
		}{
			{"amplitude", &params.Amplitude},
			{"offset", &params.Offset},
			{"thickness", &params.Thickness},
			{"height", &params.Height},
		}
		for _, f := range floats {
			if v, ok := pa.kw[f.name]; ok {
				val, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("weave: %s: %w", f.name, err)
				}
				*f.dst = units.Length(val)
			}
		}
		if v, ok := pa.kw["phase"]; ok {
			val, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("weave: phase: %w", err)
			}
			params.PhaseOffset = units.Angle(val)
		}
		if v, ok := pa.kw["pattern-only"]; ok {
			if params.PatternOnly, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("weave: pattern-only: %w", err)
			}
		}
		hug := false
		if v, ok := pa.kw["hug-surface"]; ok {
			if hug, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("weave: hug-surface: %w", err)
			}
		}

		res, err := s.engine.Orchestrate(s.ctx, body, params, hug)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("weave: %w", err)
		}
		s.result.Weaves = append(s.result.Weaves, res)
		return &sexpWeave{result: res}, nil
	})

	// -----------------------------------------------------------------------
	// (export-stl weave-result "out.stl")
	// -----------------------------------------------------------------------
	env.AddFunction("export_stl", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("export-stl requires a weave result and a path")
		}
		w, ok := args[0].(*sexpWeave)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("export-stl: expected weave result, got %T", args[0])
		}
		path, err := toString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("export-stl: path: %w", err)
		}

		var meshes stl.Meshes
		for _, rope := range w.result.Ropes {
			if rope.Body == nil {
				continue
			}
			m, err := k.ToMesh(rope.Body)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("export-stl: rope %d: %w", rope.Index, err)
			}
			meshes = append(meshes, m)
		}
		if err := stl.WriteFile(path, meshes); err != nil {
			return zygo.SexpNull, fmt.Errorf("export-stl: %w", err)
		}
		s.result.Exports = append(s.result.Exports, path)
		return &zygo.SexpStr{S: path}, nil
	})
}

// requireFloat reads a mandatory numeric keyword argument.
func requireFloat(pa kwArgs, fn, key string) (float64, error) {
	v, ok := pa.kw[key]
	if !ok {
		return 0, fmt.Errorf("%s: missing :%s", fn, key)
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	return f, nil
}
