package packaging

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Deployment variants.
const (
	// VariantMinimal mirrors the whole source tree and installs no hook.
	VariantMinimal = "minimal"
	// VariantFull mirrors runtime scripts only, skips tests and installs the pacman hook.
	VariantFull = "full"
)

// Manifest declares what a deployment installs. It is read from YAML or TOML and
// folded into an InstallConfig with Apply. Unset fields leave the config unchanged.
type Manifest struct {
	// Variant selects a preset that the other fields refine.
	Variant string `yaml:"variant" toml:"variant"`

	SourceDir   string `yaml:"source_dir" toml:"source_dir"`
	AssetDir    string `yaml:"asset_dir" toml:"asset_dir"`
	EntryScript string `yaml:"entry_script" toml:"entry_script"`

	FilterPatterns  []string `yaml:"filter_patterns" toml:"filter_patterns"`
	ExcludePatterns []string `yaml:"exclude_patterns" toml:"exclude_patterns"`
	InstallHook     *bool    `yaml:"install_hook" toml:"install_hook"`
}

// PresetManifest returns the manifest for a named variant.
func PresetManifest(variant string) (Manifest, error) {
	switch variant {
	case VariantMinimal:
		hook := false
		return Manifest{
			Variant:         VariantMinimal,
			FilterPatterns:  []string{},
			ExcludePatterns: []string{},
			InstallHook:     &hook,
		}, nil
	case VariantFull:
		hook := true
		return Manifest{
			Variant:         VariantFull,
			FilterPatterns:  []string{"**.py", "**.sh"},
			ExcludePatterns: []string{"**_test.py", "**_test.sh"},
			InstallHook:     &hook,
		}, nil
	default:
		return Manifest{}, fmt.Errorf("packaging: manifest: unknown variant %q (must be %q or %q)", variant, VariantMinimal, VariantFull)
	}
}

// LoadManifest reads a manifest file. The format follows the extension:
// .yaml/.yml or .toml. Relative directories are resolved against the manifest's
// own directory.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("packaging: manifest: read %s: %w", path, err)
	}

	var format string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	case ".toml":
		format = "toml"
	default:
		return Manifest{}, fmt.Errorf("packaging: manifest: %s: unsupported extension (want .yaml, .yml or .toml)", path)
	}

	m, err := ParseManifest(data, format)
	if err != nil {
		return Manifest{}, fmt.Errorf("packaging: manifest: parse %s: %w", path, err)
	}

	base := filepath.Dir(path)
	if m.SourceDir != "" && !filepath.IsAbs(m.SourceDir) {
		m.SourceDir = filepath.Join(base, m.SourceDir)
	}
	if m.AssetDir != "" && !filepath.IsAbs(m.AssetDir) {
		m.AssetDir = filepath.Join(base, m.AssetDir)
	}
	return m, nil
}

// ParseManifest decodes a manifest in the given format ("yaml" or "toml").
// Unknown keys are rejected. When a variant is named, its preset fills every
// field the document leaves unset.
func ParseManifest(data []byte, format string) (Manifest, error) {
	var m Manifest
	switch format {
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return Manifest{}, err
		}
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return Manifest{}, err
		}
	default:
		return Manifest{}, fmt.Errorf("unsupported manifest format %q", format)
	}

	if m.Variant == "" {
		return m, nil
	}
	preset, err := PresetManifest(m.Variant)
	if err != nil {
		return Manifest{}, err
	}
	preset.overlay(m)
	return preset, nil
}

// overlay copies every set field of o onto m.
func (m *Manifest) overlay(o Manifest) {
	if o.SourceDir != "" {
		m.SourceDir = o.SourceDir
	}
	if o.AssetDir != "" {
		m.AssetDir = o.AssetDir
	}
	if o.EntryScript != "" {
		m.EntryScript = o.EntryScript
	}
	if o.FilterPatterns != nil {
		m.FilterPatterns = o.FilterPatterns
	}
	if o.ExcludePatterns != nil {
		m.ExcludePatterns = o.ExcludePatterns
	}
	if o.InstallHook != nil {
		m.InstallHook = o.InstallHook
	}
}

// Apply folds the manifest into cfg. Fields the manifest leaves unset keep cfg's value.
func (m Manifest) Apply(cfg *InstallConfig) {
	if m.SourceDir != "" {
		cfg.SourceDir = m.SourceDir
	}
	if m.AssetDir != "" {
		cfg.AssetDir = m.AssetDir
	}
	if m.EntryScript != "" {
		cfg.EntryScript = m.EntryScript
	}
	if m.FilterPatterns != nil {
		cfg.IncludePatterns = append([]string(nil), m.FilterPatterns...)
	}
	if m.ExcludePatterns != nil {
		cfg.ExcludePatterns = append([]string(nil), m.ExcludePatterns...)
	}
	if m.InstallHook != nil {
		cfg.InstallHook = *m.InstallHook
	}
}
