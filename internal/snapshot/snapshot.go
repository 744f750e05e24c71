// Package snapshot reads and writes the YAML event file the host uses to
// seed the calendar and to persist it between runs.
package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"evcal/internal/fsutil"
	"evcal/internal/model"
)

// ErrNotExist is returned by Load when the file is absent.
var ErrNotExist = errors.New("snapshot does not exist")

// File is the on-disk layout:
//
//	events:
//	  - id: "1"
//	    title: Vacation
//	    start: 2024-11-05
//	    end: 2024-11-10
//	    color: peacock
type File struct {
	Events []model.Event `yaml:"events"`
}

// Load reads the event file at path.
func Load(path string) ([]model.Event, error) {
	if path == "" {
		return nil, errors.New("snapshot path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	if f.Events == nil {
		f.Events = []model.Event{}
	}
	return f.Events, nil
}

// Save writes events to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, events []model.Event) error {
	if path == "" {
		return errors.New("snapshot path is empty")
	}
	if events == nil {
		events = []model.Event{}
	}

	data, err := yaml.Marshal(File{Events: events})
	if err != nil {
		return err
	}

	return fsutil.WriteFileAtomic(path, data, ".evcal-events-*.tmp")
}
