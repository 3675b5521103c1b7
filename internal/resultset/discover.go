package resultset

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoverRuns returns the directories beneath root that look like complete
// test runs, identified by the presence of a results manifest. The returned
// paths are sorted.
func DiscoverRuns(root string) ([]string, error) {
	var runs []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == ManifestFilename {
			runs = append(runs, filepath.Dir(path))
		}

		return nil
	})
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}

	sort.Strings(runs)

	return runs, nil
}
