package envsubst

import (
	"path"
	"regexp"

	"github.com/a8m/envsubst"
	"github.com/cuemby/shipwright/pkg/log"
	"github.com/cuemby/shipwright/pkg/types"
)

// bareVarPattern finds $NAME and ${NAME} references that carry no ":-"
// default, so a miss against env can be flagged with a warning. It
// deliberately does not match ${NAME:-...}.
var bareVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// Substitute expands text against env according to scope. When scope is
// ScopeNone, text is returned unchanged.
func Substitute(text string, env map[string]string, scope types.SubstitutionScope) (string, error) {
	if scope.Scope == types.ScopeNone {
		return text, nil
	}
	warnUnknown(text, env, scope.Patterns)

	out, err := envsubst.Eval(text, func(name string) string {
		if !eligible(name, scope.Patterns) {
			return ""
		}
		return env[name]
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// SubstituteArgs expands each argument per scope when scope permits the args
// half (ScopeArgs or ScopeBoth); otherwise the slice is returned unchanged.
func SubstituteArgs(args []string, env map[string]string, scope types.SubstitutionScope) ([]string, error) {
	if scope.Scope != types.ScopeArgs && scope.Scope != types.ScopeBoth {
		return args, nil
	}
	out := make([]string, len(args))
	for i, a := range args {
		s, err := Substitute(a, env, types.SubstitutionScope{Scope: types.ScopeText, Patterns: scope.Patterns})
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func eligible(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}

// warnUnknown logs one warning per bare (no-default) variable reference whose
// name is missing from env. Referenced names outside the scope's pattern
// allowlist are skipped: Substitute expands them to the empty string without
// a warning.
func warnUnknown(text string, env map[string]string, patterns []string) {
	matches := bareVarPattern.FindAllStringSubmatch(text, -1)
	seen := map[string]bool{}
	for _, m := range matches {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if seen[name] || !eligible(name, patterns) {
			continue
		}
		seen[name] = true
		if _, ok := env[name]; !ok {
			log.WithComponent("envsubst").Warn().Str("variable", name).Msg("undefined variable expands to empty string")
		}
	}
}
