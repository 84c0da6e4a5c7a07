package render

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/robfig/jinja/errortypes"
)

// unknownName returns the error for an unregistered filter or test,
// suggesting the closest registered name.
func unknownName(kind errortypes.Kind, what, name string, candidates []string) error {
	if s := suggest(name, candidates); s != "" {
		return errortypes.Newf(kind, "unknown %s '%s' (did you mean '%s'?)", what, name, s)
	}
	return errortypes.Newf(kind, "unknown %s '%s'", what, name)
}

// suggest returns the candidate that best matches name, or "" if none is
// close. Candidates that contain the letters of name in order rank first,
// then candidates sharing its prefix.
func suggest(name string, candidates []string) string {
	if name == "" {
		return ""
	}
	if matches := fuzzy.Find(name, candidates); len(matches) > 0 {
		return matches[0].Str
	}
	var prefix = name
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			return c
		}
	}
	return ""
}

// CheckFilter returns an UnknownFilter error if no filter is registered
// under name.
func (env *Environment) CheckFilter(name string) error {
	if _, ok := env.filters[name]; ok {
		return nil
	}
	return unknownName(errortypes.UnknownFilter, "filter", name, env.FilterNames())
}

// CheckTest returns an UnknownTest error if no test is registered under name.
func (env *Environment) CheckTest(name string) error {
	if _, ok := env.tests[name]; ok {
		return nil
	}
	return unknownName(errortypes.UnknownTest, "test", name, env.TestNames())
}
