// Package dataset defines the collector's output document: per-species
// records with their media assets, and the merged JSON dataset written at the
// end of each run.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DocumentVersion identifies the dataset schema emitted by this collector.
const DocumentVersion = "2.0.0"

// Photo is a downloaded and validated photo asset.
type Photo struct {
	URL            string `json:"url"`
	Source         string `json:"source"`
	License        string `json:"license"`
	Attribution    string `json:"attribution"`
	ObservationURL string `json:"observation_url,omitempty"`
	Cached         string `json:"cached"`
}

// Recording is a downloaded and validated audio asset.
type Recording struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	AudioURL    string `json:"audioUrl"`
	Quality     string `json:"quality"`
	Duration    string `json:"duration"`
	Location    string `json:"location"`
	Recordist   string `json:"recordist"`
	Date        string `json:"date"`
	License     string `json:"license"`
	CachedAudio string `json:"cachedAudio"`
}

// Stats summarizes a record's media lists. Always derived, never set
// independently.
type Stats struct {
	TotalRecordings int      `json:"totalRecordings"`
	RecordingTypes  []string `json:"recordingTypes"`
	TotalPhotos     int      `json:"totalPhotos"`
}

// Record is the per-species output unit.
type Record struct {
	Key            string      `json:"id"`
	CommonName     string      `json:"commonName"`
	ScientificName string      `json:"scientificName"`
	Description    string      `json:"description"`
	Photos         []Photo     `json:"photos"`
	Recordings     []Recording `json:"recordings"`
	Stats          Stats       `json:"stats"`
}

// DeriveStats computes a record's stats from its final media lists. Recording
// types are deduplicated and sorted for stable output.
func DeriveStats(photos []Photo, recordings []Recording) Stats {
	seen := make(map[string]struct{}, len(recordings))
	types := make([]string, 0, len(recordings))
	for _, rec := range recordings {
		if _, ok := seen[rec.Type]; ok {
			continue
		}
		seen[rec.Type] = struct{}{}
		types = append(types, rec.Type)
	}
	sort.Strings(types)
	return Stats{
		TotalRecordings: len(recordings),
		RecordingTypes:  types,
		TotalPhotos:     len(photos),
	}
}

// Metadata describes a dataset document.
type Metadata struct {
	Version      string    `json:"version"`
	Created      time.Time `json:"created"`
	TotalSpecies int       `json:"totalSpecies"`
	DataSources  []string  `json:"dataSources"`
	TestMode     bool      `json:"testMode"`
}

// Document is the complete dataset file.
type Document struct {
	Species  []Record `json:"species"`
	Metadata Metadata `json:"metadata"`
}

// Load reads a dataset document from path. A missing file yields an empty
// document; a malformed file yields an error the caller may choose to treat
// as empty.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return &doc, nil
}

// Write persists the document atomically: marshaled to a temp file beside
// path, then renamed into place so a failure never leaves a half-written
// dataset.
func (d *Document) Write(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp dataset: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("install dataset: %w", err)
	}
	return nil
}

// Merge overlays updated records onto existing ones by key. Records already
// in existing keep their original position (updated in place when this run
// touched them); records new to this run are appended in run order.
func Merge(existing []Record, updated []Record) []Record {
	merged := make([]Record, len(existing))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, rec := range merged {
		index[rec.Key] = i
	}

	for _, rec := range updated {
		if i, ok := index[rec.Key]; ok {
			merged[i] = rec
			continue
		}
		index[rec.Key] = len(merged)
		merged = append(merged, rec)
	}
	return merged
}
