// Package project describes on-disk playback projects: a manifest pointing
// at the compiled project source plus the assets it references.
package project

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the YAML description of a playable project.
type Manifest struct {
	Version string `yaml:"version"`
	Name    string `yaml:"name"`
	// Source is the path to the compiled project IR (JSON) handed to the
	// renderer's Compile.
	Source  string       `yaml:"source"`
	Display DisplaySize  `yaml:"display,omitempty"`
	Assets  []AssetEntry `yaml:"assets,omitempty"`
}

// DisplaySize is the initial display size of the rendered surface; zero
// means native project resolution.
type DisplaySize struct {
	Width  int `yaml:"width,omitempty"`
	Height int `yaml:"height,omitempty"`
}

// AssetEntry maps an asset id to the file providing its bytes.
type AssetEntry struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
}

// ReadManifest reads and validates a manifest from a YAML file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.Source == "" {
		return nil, fmt.Errorf("manifest %s: missing source", path)
	}
	for i, a := range m.Assets {
		if a.ID == "" || a.Path == "" {
			return nil, fmt.Errorf("manifest %s: asset %d needs both id and path", path, i)
		}
	}
	return &m, nil
}

// WriteManifest writes a manifest to a YAML file.
func WriteManifest(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// AssetFiles returns the manifest's assets as an id → path map, ready for
// the asset store's prefetch.
func (m *Manifest) AssetFiles() map[string]string {
	out := make(map[string]string, len(m.Assets))
	for _, a := range m.Assets {
		out[a.ID] = a.Path
	}
	return out
}
