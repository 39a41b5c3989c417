package labtex

import (
	"database/sql/driver"
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	PipelineTexture        = "texture"
	PipelineClassification = "color_names"
)

// Manifest records one finished build.
type Manifest struct {
	Version      string    `json:"version"`
	ID           string    `json:"id"`
	Timestamp    string    `json:"timestamp"`
	Pipeline     string    `json:"pipeline"`
	Scheme       string    `json:"scheme"`
	Bins         int       `json:"bins,omitempty"`
	Method       Method    `json:"method"`
	OccupiedBins int       `json:"occupied_bins"`
	TotalBins    int       `json:"total_bins"`
	Points       int       `json:"points,omitempty"`
	Coverage     *Coverage `json:"coverage,omitempty"`
	Files        []string  `json:"files"`
	Stats        *LUTStats `json:"stats,omitempty"`
	Elapsed      string    `json:"elapsed"`
}

func (b *Manifest) Occupancy() float64 {
	if b.TotalBins == 0 {
		return 0
	}
	return 100 * float64(b.OccupiedBins) / float64(b.TotalBins)
}

// HasFile reports whether the build wrote a file with the given base name.
func (b *Manifest) HasFile(name string) bool {
	for _, f := range b.Files {
		if filepath.Base(f) == name {
			return true
		}
	}
	return false
}

func (b *Manifest) Scan(src interface{}) error {
	return jsonScan(src, b)
}

func (b Manifest) Value() (driver.Value, error) {
	return json.Marshal(b)
}

func (b *Manifest) save(path string) error {
	buff, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buff, DefaultPerm)
}
