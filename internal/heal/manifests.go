package heal

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed manifests.yaml
var manifestTable []byte

// ManifestRule maps a manifest filename to its install probe. The probe
// always runs in the manifest's own directory, never anywhere else.
type ManifestRule struct {
	// Filename is the exact manifest filename, e.g. "package.json".
	Filename string `yaml:"filename"`
	// Probe is the install command and its arguments.
	Probe []string `yaml:"probe"`
	// Exclude lists ancestor directory names whose contents are skipped,
	// e.g. vendored or virtual-env trees.
	Exclude []string `yaml:"exclude"`
}

type manifestFile struct {
	Manifests []ManifestRule `yaml:"manifests"`
}

// DefaultRules returns the built-in manifest recognition table.
func DefaultRules() ([]ManifestRule, error) {
	var f manifestFile
	if err := yaml.Unmarshal(manifestTable, &f); err != nil {
		return nil, fmt.Errorf("parse manifest table: %w", err)
	}
	for _, r := range f.Manifests {
		if r.Filename == "" || len(r.Probe) == 0 {
			return nil, fmt.Errorf("manifest table entry missing filename or probe")
		}
	}
	return f.Manifests, nil
}
