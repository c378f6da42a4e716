package filesync

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Filter selects which source files are mirrored. Patterns are gobwas/glob
// expressions matched against slash-separated paths relative to the source root:
// "*" stays within one path segment, "**" crosses segments.
//
// An empty Include selects every regular file. Exclude always wins over Include.
type Filter struct {
	Include []string
	Exclude []string
}

type matcher struct {
	include []glob.Glob
	exclude []glob.Glob
}

func (f Filter) compile() (*matcher, error) {
	m := &matcher{}
	for _, p := range f.Include {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("filesync: compile include pattern %q: %w", p, err)
		}
		m.include = append(m.include, g)
	}
	for _, p := range f.Exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("filesync: compile exclude pattern %q: %w", p, err)
		}
		m.exclude = append(m.exclude, g)
	}
	return m, nil
}

// match reports whether rel (slash-separated) passes the filter.
func (m *matcher) match(rel string) bool {
	for _, g := range m.exclude {
		if g.Match(rel) {
			return false
		}
	}
	if len(m.include) == 0 {
		return true
	}
	for _, g := range m.include {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
