package distro

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/yabsnap/yabsnap-deploy/internal/exitcode"
)

// Predicate reports whether a host is compatible with a deployment.
type Predicate func(OSRelease) bool

// Family matches hosts whose ID is name or whose ID_LIKE lists name.
func Family(name string) Predicate {
	return func(r OSRelease) bool {
		return r.ID == name || slices.Contains(r.IDLike, name)
	}
}

// DefaultFamily is the distribution family yabsnap supports.
const DefaultFamily = "arch"

// Checker reads the host identity on demand and applies a predicate to it.
type Checker struct {
	path   string
	family string
	match  Predicate
	logger *slog.Logger
}

// NewChecker returns a Checker that requires the os-release file at path to
// belong to family.
func NewChecker(path, family string, logger *slog.Logger) *Checker {
	return &Checker{
		path:   path,
		family: family,
		match:  Family(family),
		logger: logger.With("component", "distro"),
	}
}

// CheckHost returns a precondition error when the host cannot be identified
// or is not part of the required family.
func (c *Checker) CheckHost() error {
	rel, err := ReadOSRelease(c.path)
	if err != nil {
		return exitcode.Precondition("cannot identify host distribution", err)
	}
	if !c.match(rel) {
		return exitcode.New(exitcode.PreconditionFail,
			fmt.Sprintf("host distribution %q (id %q) is not in the %q family", rel.String(), rel.ID, c.family))
	}
	c.logger.Debug("host distribution accepted", "id", rel.ID, "family", c.family)
	return nil
}
