package packaging

import (
	"fmt"
	"strings"
)

// GenerateDefaultManifest produces a commented manifest.yaml for the named variant.
func GenerateDefaultManifest(variant string) (string, error) {
	m, err := PresetManifest(variant)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`# yabsnap-deploy manifest
# Fields left out fall back to the %[1]s preset.

variant: %[1]s
source_dir: ../src
asset_dir: .
entry_script: %[2]s
filter_patterns: %[3]s
exclude_patterns: %[4]s
install_hook: %[5]t
`, m.Variant, DefaultEntryScript, yamlList(m.FilterPatterns), yamlList(m.ExcludePatterns), *m.InstallHook), nil
}

func yamlList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
