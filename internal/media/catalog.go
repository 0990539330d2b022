package media

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"pomodisc/backend/internal/model"
)

const DefaultTrackID = "rain"

type Track struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	File  string `yaml:"file" json:"-"`
	Src   string `yaml:"-" json:"src"`
}

// Catalog is the fixed list of library tracks.
type Catalog struct {
	tracks    []Track
	byID      map[string]Track
	defaultID string
}

type catalogFile struct {
	Default string  `yaml:"default"`
	Tracks  []Track `yaml:"tracks"`
}

// DefaultCatalog is the built-in track list, resolved against audioDir.
func DefaultCatalog(audioDir string) *Catalog {
	tracks := []Track{
		{ID: "rain", Label: "Rain", File: "rain.mp3"},
		{ID: "cafe", Label: "Cafe", File: "cafe.mp3"},
		{ID: "jazz", Label: "Jazz", File: "jazz.mp3"},
		{ID: "lofi", Label: "Lo-Fi Beats", File: "lofi.mp3"},
	}
	return newCatalog(audioDir, DefaultTrackID, tracks)
}

// LoadCatalog reads a YAML track list. Relative file names resolve against
// audioDir.
func LoadCatalog(path, audioDir string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	if len(file.Tracks) == 0 {
		return nil, fmt.Errorf("catalog %s lists no tracks", path)
	}

	seen := make(map[string]bool, len(file.Tracks))
	for i, track := range file.Tracks {
		if track.ID == "" || track.File == "" {
			return nil, fmt.Errorf("catalog %s: track %d needs an id and a file", path, i)
		}
		if seen[track.ID] {
			return nil, fmt.Errorf("catalog %s: duplicate track id %q", path, track.ID)
		}
		seen[track.ID] = true
	}

	defaultID := file.Default
	if defaultID == "" {
		defaultID = file.Tracks[0].ID
	}
	if !seen[defaultID] {
		return nil, fmt.Errorf("catalog %s: default track %q not listed", path, defaultID)
	}
	return newCatalog(audioDir, defaultID, file.Tracks), nil
}

func newCatalog(audioDir, defaultID string, tracks []Track) *Catalog {
	c := &Catalog{
		tracks:    make([]Track, 0, len(tracks)),
		byID:      make(map[string]Track, len(tracks)),
		defaultID: defaultID,
	}
	for _, track := range tracks {
		if track.Label == "" {
			track.Label = track.ID
		}
		track.Src = track.File
		if !filepath.IsAbs(track.Src) {
			track.Src = filepath.Join(audioDir, track.File)
		}
		c.tracks = append(c.tracks, track)
		c.byID[track.ID] = track
	}
	return c
}

func (c *Catalog) Tracks() []Track {
	out := make([]Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

func (c *Catalog) Lookup(id string) (Track, bool) {
	track, ok := c.byID[id]
	return track, ok
}

func (c *Catalog) DefaultID() string {
	return c.defaultID
}

// Reference returns the library reference for id, falling back to the
// default track for unknown ids.
func (c *Catalog) Reference(id string) Reference {
	track, ok := c.byID[id]
	if !ok {
		track = c.byID[c.defaultID]
	}
	return Reference{Kind: model.SourceLibrary, ID: track.ID, Src: track.Src}
}
