// Package condition evaluates decision-node predicates against instance data.
//
// The grammar is deliberately small: comparisons (>, <, ==, !=) over
// instance-data keys and literal numbers/strings/booleans, combined with
// and/or and parentheses. There is no code execution and no side effect, so
// evaluation stays deterministic and auditable. Evaluation errors are never
// defaulted to a branch; the caller fails the owning instance instead.
package condition

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingKey indicates the predicate referenced a key absent from
	// the instance data.
	ErrMissingKey = errors.New("missing data key")

	// ErrTypeMismatch indicates operands of incompatible types.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrSyntax indicates the expression does not parse under the grammar.
	ErrSyntax = errors.New("invalid expression syntax")
)

// EvalError wraps an evaluation failure with the offending expression.
type EvalError struct {
	Expression string
	Err        error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating %q: %v", e.Expression, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// IsEvalError reports whether err originated from predicate evaluation.
func IsEvalError(err error) bool {
	var target *EvalError

	return errors.As(err, &target)
}

// Evaluate parses expr and evaluates it against data. The result is strictly
// boolean; non-boolean expressions are an error, not a truthiness guess.
func Evaluate(expr string, data map[string]any) (bool, error) {
	node, err := parse(expr)
	if err != nil {
		return false, &EvalError{Expression: expr, Err: err}
	}

	value, err := node.eval(data)
	if err != nil {
		return false, &EvalError{Expression: expr, Err: err}
	}

	result, ok := value.(bool)
	if !ok {
		return false, &EvalError{
			Expression: expr,
			Err:        fmt.Errorf("%w: expression yields %T, want bool", ErrTypeMismatch, value),
		}
	}

	return result, nil
}
