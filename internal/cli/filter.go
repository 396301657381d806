package cli

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/aleksaelezovic/xmpkit/pkg/xmp"
)

// filterEnv is the environment a --filter expression is evaluated in.
type filterEnv struct {
	Namespace   string
	Prefix      string
	Path        string
	Value       string
	Language    string
	IsArray     bool
	IsStruct    bool
	IsQualifier bool
	IsURI       bool
}

// nodeFilter selects iterator nodes with a boolean expression such as
// `Path startsWith "dc:" && Value != ""`.
type nodeFilter struct {
	program *vm.Program
}

func compileFilter(src string) (*nodeFilter, error) {
	program, err := expr.Compile(src, expr.Env(filterEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	return &nodeFilter{program: program}, nil
}

func (f *nodeFilter) match(reg *xmp.Registry, info xmp.PropertyInfo) (bool, error) {
	prefix, _ := reg.Prefix(info.Namespace)
	env := filterEnv{
		Namespace:   info.Namespace,
		Prefix:      prefix,
		Path:        info.Path,
		Value:       info.Value,
		Language:    info.Language,
		IsArray:     info.Options.IsArray(),
		IsStruct:    info.Options.IsStruct(),
		IsQualifier: info.Options.IsQualifier(),
		IsURI:       info.Options.IsURI(),
	}
	out, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("filter %s: %w", info.Path, err)
	}
	return out.(bool), nil
}
