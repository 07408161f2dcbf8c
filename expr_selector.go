package snapstore

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/golang/glog"
)

// NewExprSelector compiles an expr-lang expression into a Selector over
// store. The expression sees the fields of a Mapping root as variables;
// any other root is visible as the variable "root". A run that fails
// evaluates to nil.
func NewExprSelector(store *Store, source string, opts ...SelectorOption[any]) (*Selector[any], error) {
	if source == "" {
		return nil, fmt.Errorf("expr selector: expression must not be empty")
	}
	program, err := expr.Compile(source,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("expr selector: compile %q: %w", source, err)
	}
	return NewSelector(func(c *Selection) any {
		root := c.Snapshot(store).Root()
		env, err := c.Memo(root, exprEnv)
		if err != nil {
			glog.Warningf("[store %s] expr selector %q: %v", store.ID(), source, err)
			return nil
		}
		out, err := expr.Run(program, env)
		if err != nil {
			glog.V(1).Infof("[store %s] expr selector %q: %v", store.ID(), source, err)
			return nil
		}
		return out
	}, opts...), nil
}

func exprEnv(root any) map[string]any {
	if plain, ok := plainOf(root).(map[string]any); ok {
		return plain
	}
	return map[string]any{"root": plainOf(root)}
}
