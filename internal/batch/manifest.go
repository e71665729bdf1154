package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ManifestEntry represents one file in the output manifest.
type ManifestEntry struct {
	Source   string   `json:"source"`
	Output   string   `json:"output,omitempty"`
	Kind     string   `json:"kind"`
	Records  int      `json:"records"`
	Dialect  string   `json:"dialect,omitempty"`
	Preview  string   `json:"preview,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// WriteManifest writes the results as a JSON array to path. Output and
// preview paths are recorded relative to the manifest's directory.
func WriteManifest(path string, results []Result) error {
	base := filepath.Dir(path)
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Source:   filepath.ToSlash(r.Source),
			Kind:     string(r.Kind),
			Records:  r.Records,
			Dialect:  r.Dialect,
			Warnings: r.Warnings,
			Error:    r.Error,
		}
		if r.Success {
			entries[i].Output = relTo(base, r.Output)
		}
		if r.Preview != "" {
			entries[i].Preview = relTo(base, r.Preview)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(base, 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func relTo(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}
