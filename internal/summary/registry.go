package summary

import (
	"encoding/json"
	"os"
	"sync"
)

// RegistryFilename is the registry artifact name within an output root.
const RegistryFilename = "registry.json"

// Registry maps each result set, keyed by its path relative to the results
// root, to the golden set it was compared against. Entries accumulate across
// a batch and are persisted once at the end to avoid partial-write races.
type Registry struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]string),
	}
}

// LoadRegistry reads a registry artifact. A missing file yields an empty
// registry so first runs need no special casing.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRegistry(), nil
		}

		return nil, &SerializationError{Path: path, Err: err}
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &SerializationError{Path: path, Err: err}
	}

	return &Registry{entries: entries}, nil
}

// Record maps a result set to the golden it was compared against.
func (r *Registry) Record(resultRelPath, goldenPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[resultRelPath] = goldenPath
}

// Golden returns the golden recorded for a result set.
func (r *Registry) Golden(resultRelPath string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	golden, ok := r.entries[resultRelPath]

	return golden, ok
}

// Len returns the number of recorded comparisons.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Snapshot returns a copy of the registry contents.
func (r *Registry) Snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make(map[string]string, len(r.entries))
	for result, golden := range r.entries {
		entries[result] = golden
	}

	return entries
}

// Save persists the registry as canonical JSON with sorted keys and
// ASCII-only output.
func (r *Registry) Save(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return &SerializationError{Path: path, Err: err}
	}

	if err := os.WriteFile(path, append(escapeNonASCII(data), '\n'), 0o644); err != nil {
		return &SerializationError{Path: path, Err: err}
	}

	return nil
}
