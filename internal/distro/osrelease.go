// Package distro identifies the host distribution and guards destructive
// operations against running on an unsupported one.
package distro

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/kballard/go-shellquote"
)

// DefaultOSReleasePath is the primary location of the os-release file.
const DefaultOSReleasePath = "/etc/os-release"

// fallbackOSReleasePath is consulted when DefaultOSReleasePath is absent.
const fallbackOSReleasePath = "/usr/lib/os-release"

// OSRelease holds the fields of an os-release file that identify the host.
type OSRelease struct {
	ID         string
	IDLike     []string
	Name       string
	PrettyName string

	// Fields holds every key/value pair found in the file.
	Fields map[string]string
}

// ParseOSRelease parses os-release content. Values may use shell quoting.
// Blank lines and comments are ignored; malformed lines are an error.
func ParseOSRelease(r io.Reader) (OSRelease, error) {
	rel := OSRelease{Fields: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, raw, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			return OSRelease{}, fmt.Errorf("distro: os-release line %d: missing '='", lineNo)
		}
		words, err := shellquote.Split(raw)
		if err != nil {
			return OSRelease{}, fmt.Errorf("distro: os-release line %d: %w", lineNo, err)
		}
		rel.Fields[key] = strings.Join(words, " ")
	}
	if err := scanner.Err(); err != nil {
		return OSRelease{}, fmt.Errorf("distro: read os-release: %w", err)
	}

	rel.ID = strings.ToLower(rel.Fields["ID"])
	rel.Name = rel.Fields["NAME"]
	rel.PrettyName = rel.Fields["PRETTY_NAME"]
	for _, like := range strings.Fields(rel.Fields["ID_LIKE"]) {
		rel.IDLike = append(rel.IDLike, strings.ToLower(like))
	}
	return rel, nil
}

// ReadOSRelease reads and parses the os-release file at path. When path is the
// default location and it does not exist, /usr/lib/os-release is tried instead.
func ReadOSRelease(path string) (OSRelease, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) && path == DefaultOSReleasePath {
		f, err = os.Open(fallbackOSReleasePath)
	}
	if err != nil {
		return OSRelease{}, fmt.Errorf("distro: open os-release: %w", err)
	}
	defer f.Close()

	return ParseOSRelease(f)
}

// String returns a short human-readable identity for log and error messages.
func (r OSRelease) String() string {
	if r.PrettyName != "" {
		return r.PrettyName
	}
	if r.Name != "" {
		return r.Name
	}
	if r.ID != "" {
		return r.ID
	}
	return "unknown"
}
