// Package filter compiles CEL expressions that select notes,
// e.g. `"work" in tags && updated_ts > 1700000000`.
package filter

import (
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// Variables visible to a filter expression.
const (
	varTitle     = "title"
	varContent   = "content"
	varTags      = "tags"
	varCreatedTs = "created_ts"
	varUpdatedTs = "updated_ts"
)

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

func getEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable(varTitle, cel.StringType),
			cel.Variable(varContent, cel.StringType),
			cel.Variable(varTags, cel.ListType(cel.StringType)),
			cel.Variable(varCreatedTs, cel.IntType),
			cel.Variable(varUpdatedTs, cel.IntType),
		)
	})
	return env, envErr
}

// Note is the view of a note a filter is evaluated against.
// Tags must already be normalized.
type Note struct {
	Title     string
	Content   string
	Tags      []string
	CreatedTs int64
	UpdatedTs int64
}

// Program is a compiled filter expression.
type Program struct {
	source  string
	program cel.Program
}

// Compile parses and type-checks expr. The expression must evaluate to a bool.
func Compile(expr string) (*Program, error) {
	e, err := getEnv()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filter environment")
	}

	ast, issues := e.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid filter %q", expr)
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Errorf("filter %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	program, err := e.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build filter program %q", expr)
	}
	return &Program{source: expr, program: program}, nil
}

// String returns the source expression.
func (p *Program) String() string {
	return p.source
}

// Match evaluates the program against note.
func (p *Program) Match(note Note) (bool, error) {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	out, _, err := p.program.Eval(map[string]any{
		varTitle:     note.Title,
		varContent:   note.Content,
		varTags:      tags,
		varCreatedTs: note.CreatedTs,
		varUpdatedTs: note.UpdatedTs,
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to evaluate filter %q", p.source)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("filter %q produced %T, want bool", p.source, out.Value())
	}
	return matched, nil
}
