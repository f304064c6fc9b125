// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package expr

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/interpreter/functions"
)

const (
	// DefaultMaxExpressionLength is the maximum allowed length for an expression.
	// This limit prevents DoS attacks via excessively long expressions.
	DefaultMaxExpressionLength = 10000

	// DefaultCostLimit is the default runtime cost limit for expression evaluation.
	// This prevents DoS attacks via expensive operations in expressions.
	DefaultCostLimit = 1000000

	// onErrorFunc is the name of the fallback-arming function available in
	// every expression namespace.
	onErrorFunc = "on_error"
)

// Engine provides expression compilation and evaluation against dynamic
// namespaces. It is safe for concurrent use from multiple goroutines.
type Engine struct {
	envCache            *envCache
	factory             envFactory
	maxExpressionLength int
	costLimit           uint64
}

// envFactory is a function that creates a CEL environment.
type envFactory func() (*cel.Env, error)

// envCache holds a lazily-initialized CEL environment.
type envCache struct {
	once sync.Once
	env  *cel.Env
	err  error
}

// Compiled represents a parsed expression ready for evaluation.
type Compiled struct {
	source string
	ast    *cel.Ast
	engine *Engine
}

// Source returns the original expression source string.
func (ce *Compiled) Source() string {
	return ce.source
}

// NewEngine creates a new expression engine with the datacat evaluation
// namespace: the CEL standard library, path helpers (basename, dirname,
// ext), to_json, and the on_error fallback primitive.
//
// The engine is created with default limits for expression length and
// evaluation cost. Use WithMaxExpressionLength and WithCostLimit to
// customize these limits if needed.
func NewEngine() *Engine {
	return &Engine{
		envCache:            &envCache{},
		maxExpressionLength: DefaultMaxExpressionLength,
		costLimit:           DefaultCostLimit,
		factory: func() (*cel.Env, error) {
			return cel.NewEnv(baseEnvOptions()...)
		},
	}
}

// WithMaxExpressionLength sets the maximum allowed length for expressions.
// Expressions exceeding this length will be rejected during compilation.
func (e *Engine) WithMaxExpressionLength(maxLen int) *Engine {
	e.maxExpressionLength = maxLen
	return e
}

// WithCostLimit sets the runtime cost limit for expression evaluation.
// Evaluations that exceed this cost will return an error.
func (e *Engine) WithCostLimit(limit uint64) *Engine {
	e.costLimit = limit
	return e
}

// getEnv returns the CEL environment, creating it lazily on first access.
func (e *Engine) getEnv() (*cel.Env, error) {
	e.envCache.once.Do(func() {
		e.envCache.env, e.envCache.err = e.factory()
	})
	return e.envCache.env, e.envCache.err
}

// Compile parses an expression, returning a Compiled expression that can be
// evaluated multiple times against different namespaces.
//
// The expression is not type-checked: the identifiers in scope depend on
// the resource an expression is later evaluated against, so references to
// unknown attributes are evaluation-time failures, not compile errors.
//
// Returns an error if the expression exceeds the maximum length, or a
// ParseError if the expression has syntax errors.
func (e *Engine) Compile(expr string) (*Compiled, error) {
	if len(expr) > e.maxExpressionLength {
		return nil, fmt.Errorf("%w: expression length %d exceeds maximum of %d",
			ErrExpressionParse, len(expr), e.maxExpressionLength)
	}

	env, err := e.getEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to get expression environment: %w", err)
	}

	ast, issues := env.Parse(expr)
	if issues.Err() != nil {
		return nil, newParseError(expr, issues)
	}

	return &Compiled{
		source: expr,
		ast:    ast,
		engine: e,
	}, nil
}

// EvalOption configures a single evaluation.
type EvalOption func(*evalConfig)

type evalConfig struct {
	nullFallback bool
}

// WithNullFallback pre-arms the evaluation's fallback with null, as if the
// expression had called on_error(null) before anything else. Any evaluation
// failure then yields nil instead of an error.
func WithNullFallback() EvalOption {
	return func(c *evalConfig) {
		c.nullFallback = true
	}
}

// Evaluate executes the expression against the provided namespace and
// returns the result. The namespace maps identifier names to values;
// identifiers not present in the namespace fail at evaluation time.
//
// If the expression armed a fallback via on_error (or the evaluation was
// pre-armed via WithNullFallback) and evaluation fails, the fallback value
// is returned with a nil error. Otherwise failures are reported as errors
// wrapping ErrEvaluation.
func (ce *Compiled) Evaluate(vars map[string]any, opts ...EvalOption) (any, error) {
	var cfg evalConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	rec := &fallback{}
	if cfg.nullFallback {
		rec.record(types.NullValue)
	}

	prg, err := ce.engine.newProgram(ce.ast, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for %q: %w", ce.source, err)
	}

	out, _, err := prg.Eval(vars)
	if err != nil {
		if val, ok := rec.value(); ok {
			return val, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrEvaluation, err)
	}
	return nativeValue(out), nil
}

// EvaluateBool executes the expression and reports whether the result is
// truthy. Evaluation failures follow the same fallback rules as Evaluate.
func (ce *Compiled) EvaluateBool(vars map[string]any, opts ...EvalOption) (bool, error) {
	result, err := ce.Evaluate(vars, opts...)
	if err != nil {
		return false, err
	}
	return Truthy(result), nil
}

// newProgram builds an evaluable program for the AST with a fresh fallback
// recorder bound to on_error. A new program is created per evaluation so
// recorder state is never shared.
func (e *Engine) newProgram(ast *cel.Ast, rec *fallback) (cel.Program, error) {
	env, err := e.getEnv()
	if err != nil {
		return nil, err
	}
	return env.Program(ast,
		cel.CostLimit(e.costLimit),
		cel.Functions(&functions.Overload{
			Operator: onErrorFunc,
			Unary:    rec.record,
		}),
	)
}

// fallback records the substitute value armed by on_error for one evaluation.
type fallback struct {
	armed bool
	val   ref.Val
}

// record arms the fallback with v and returns false so that
// "on_error(v) || rest" proceeds to evaluate rest.
func (f *fallback) record(v ref.Val) ref.Val {
	f.armed = true
	f.val = v
	return types.False
}

// value returns the armed fallback as a native Go value.
func (f *fallback) value() (any, bool) {
	if !f.armed {
		return nil, false
	}
	return nativeValue(f.val), true
}

// nativeValue converts an evaluation result to a plain Go value.
// CEL's null sentinel becomes nil rather than its protobuf enum value.
func nativeValue(v ref.Val) any {
	if v == nil {
		return nil
	}
	if _, isNull := v.(types.Null); isNull {
		return nil
	}
	return v.Value()
}

// baseEnvOptions declares the fixed utility namespace available to every
// expression.
func baseEnvOptions() []cel.EnvOption {
	return []cel.EnvOption{
		// Declaration only: the runtime binding is supplied per evaluation
		// so each evaluation gets its own fallback recorder.
		cel.Function(onErrorFunc,
			cel.Overload("on_error_dyn", []*cel.Type{cel.DynType}, cel.BoolType),
		),
		cel.Function("basename",
			cel.Overload("basename_string", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					s, ok := v.Value().(string)
					if !ok {
						return types.NewErr("basename: expected string, got %T", v.Value())
					}
					return types.String(filepath.Base(s))
				}),
			),
		),
		cel.Function("dirname",
			cel.Overload("dirname_string", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					s, ok := v.Value().(string)
					if !ok {
						return types.NewErr("dirname: expected string, got %T", v.Value())
					}
					return types.String(filepath.Dir(s))
				}),
			),
		),
		cel.Function("ext",
			cel.Overload("ext_string", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					s, ok := v.Value().(string)
					if !ok {
						return types.NewErr("ext: expected string, got %T", v.Value())
					}
					return types.String(filepath.Ext(s))
				}),
			),
		),
		cel.Function("to_json",
			cel.Overload("to_json_dyn", []*cel.Type{cel.DynType}, cel.StringType,
				cel.UnaryBinding(func(v ref.Val) ref.Val {
					data, err := json.Marshal(nativeValue(v))
					if err != nil {
						return types.NewErr("to_json: %v", err)
					}
					return types.String(data)
				}),
			),
		),
	}
}

// Truthy reports whether an evaluation result counts as true for filtering
// purposes: null and zero-ish values are false, everything else is true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case uint64:
		return t != 0
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
