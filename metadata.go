package labtex

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const metadataVersion = "1"

// Metadata is the JSON sidecar written next to an exported texture.
type Metadata struct {
	Version     string `json:"version"`
	ID          string `json:"id"`
	Format      Format `json:"format"`
	Shape       []int  `json:"shape,omitempty"`
	Dimensions  []int  `json:"dimensions,omitempty"`
	TileSize    int    `json:"tile_size,omitempty"`
	GridSize    int    `json:"grid_size,omitempty"`
	Layout      string `json:"layout,omitempty"`
	Scheme      string `json:"scheme"`
	Bins        int    `json:"bins,omitempty"`
	Method      Method `json:"method"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// NewMetadata starts the sidecar of one build run. Format specific fields are
// filled in by the exporters.
func NewMetadata(scheme string, bins int, m Method, description string) Metadata {
	return Metadata{
		Version:     metadataVersion,
		ID:          uuid.New().String(),
		Scheme:      scheme,
		Bins:        bins,
		Method:      m,
		Description: description,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

// metadataPath names the sidecar of an artefact: "texture.bin.zst" becomes
// "texture.json", "texture_atlas.png" becomes "texture_atlas_png.json".
func metadataPath(artefact string) string {
	artefact = strings.TrimSuffix(artefact, ".zst")
	ext := filepath.Ext(artefact)
	base := strings.TrimSuffix(artefact, ext)
	if ext == ".bin" || ext == "" {
		return base + ".json"
	}
	return base + "_" + ext[1:] + ".json"
}

func WriteMetadata(m Metadata, path string) error {
	buff, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buff, DefaultPerm)
}

func ReadMetadata(path string) (*Metadata, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := &Metadata{}
	if err = jsonScan(buff, m); err != nil {
		return nil, err
	}
	return m, nil
}
