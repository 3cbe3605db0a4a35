// Package species defines the immutable species descriptors the collector is
// driven by, and loads them from TOML list files.
package species

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"warbler/internal/textutil"
)

// Species describes one entry of the collection list. Descriptors are inputs
// only; the collector never mutates them.
type Species struct {
	Key            string `toml:"key"`
	CommonName     string `toml:"common_name"`
	ScientificName string `toml:"scientific_name"`
	Genus          string `toml:"genus"`
	Species        string `toml:"species"`
}

type listFile struct {
	Species []Species `toml:"species"`
}

// Load reads a TOML species list. Every entry must carry a unique key plus a
// scientific name and genus/species pair; a missing common name is derived
// from the key ("northern-cardinal" becomes "Northern Cardinal").
func Load(path string) ([]Species, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read species list: %w", err)
	}

	var file listFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse species list: %w", err)
	}
	if len(file.Species) == 0 {
		return nil, fmt.Errorf("species list %s contains no entries", path)
	}

	seen := make(map[string]struct{}, len(file.Species))
	out := make([]Species, 0, len(file.Species))
	for i, sp := range file.Species {
		sp.Key = strings.TrimSpace(sp.Key)
		sp.CommonName = strings.TrimSpace(sp.CommonName)
		sp.ScientificName = strings.TrimSpace(sp.ScientificName)
		sp.Genus = strings.TrimSpace(sp.Genus)
		sp.Species = strings.TrimSpace(sp.Species)

		if sp.Key == "" {
			return nil, fmt.Errorf("species entry %d: key must not be empty", i+1)
		}
		if _, dup := seen[sp.Key]; dup {
			return nil, fmt.Errorf("species entry %d: duplicate key %q", i+1, sp.Key)
		}
		seen[sp.Key] = struct{}{}

		if sp.ScientificName == "" {
			return nil, fmt.Errorf("species %q: scientific_name must not be empty", sp.Key)
		}
		if sp.Genus == "" || sp.Species == "" {
			return nil, fmt.Errorf("species %q: genus and species must not be empty", sp.Key)
		}
		if sp.CommonName == "" {
			sp.CommonName = textutil.DisplayTitle(sp.Key)
		}
		out = append(out, sp)
	}
	return out, nil
}
