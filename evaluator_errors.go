package jsconfig

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEvaluator reports that no engine could be resolved.
	ErrNoEvaluator = errors.New("jsconfig: evaluator not configured")
	// ErrEmptyExpression reports a blank rule.
	ErrEmptyExpression = errors.New("jsconfig: expression must not be empty")
)

// Evaluation phases recorded on EvaluationError.
const (
	PhaseCompile = "compile"
	PhaseRun     = "run"
)

// EvaluationError is returned for a rule that failed to compile or to run
// against a snapshot. Scope is the label of the scope the rule ran in.
type EvaluationError struct {
	Engine string
	Phase  string
	Expr   string
	Scope  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("jsconfig: %s %q failed", e.Engine, e.Expr)
	if e.Phase != "" {
		msg = fmt.Sprintf("jsconfig: %s %s of %q failed", e.Engine, e.Phase, e.Expr)
	}
	if e.Scope != "" {
		msg += " in scope " + e.Scope
	}
	return msg + ": " + e.Err.Error()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// engineError reports a failure that is not tied to one expression, such as
// an environment that cannot be built.
func engineError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || errors.Is(err, ErrEmptyExpression) || errors.Is(err, ErrNoEvaluator) {
		return err
	}
	return fmt.Errorf("jsconfig: %s engine: %w", engine, err)
}

// evaluationError attaches the rule to err. An EvaluationError already in the
// chain keeps what it recorded and only gains the fields it lacked.
func evaluationError(engine, phase, expr, scope string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrEmptyExpression) {
		return err
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Phase == "" {
			evalErr.Phase = phase
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Scope == "" {
			evalErr.Scope = scope
		}
		return evalErr
	}
	return &EvaluationError{Engine: engine, Phase: phase, Expr: expr, Scope: scope, Err: err}
}
