package facts

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/leapstack-labs/leapkpi/pkg/core"
	"gopkg.in/yaml.v3"
)

// directoryFile is the on-disk layout of a facility directory:
//
//	facilities:
//	  - id: F1
//	    name: Oak Grove
//	    state: OH
//	    region: Midwest
//	    setting: SNF
type directoryFile struct {
	Facilities []struct {
		ID      string `yaml:"id"`
		Name    string `yaml:"name"`
		State   string `yaml:"state"`
		Region  string `yaml:"region"`
		Setting string `yaml:"setting"`
	} `yaml:"facilities"`
}

// LoadDirectory reads a YAML facility directory.
func LoadDirectory(path string) ([]core.Facility, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read facility directory: %w", err)
	}

	var file directoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse facility directory %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Facilities))
	out := make([]core.Facility, 0, len(file.Facilities))
	for i, f := range file.Facilities {
		if f.ID == "" {
			return nil, fmt.Errorf("facility directory %s: entry %d has no id", path, i)
		}
		if seen[f.ID] {
			return nil, fmt.Errorf("facility directory %s: duplicate id %q", path, f.ID)
		}
		seen[f.ID] = true

		setting, ok := core.ParseSetting(f.Setting)
		if !ok && f.Setting != "" {
			return nil, fmt.Errorf("facility directory %s: facility %s has unknown setting %q", path, f.ID, f.Setting)
		}
		out = append(out, core.Facility{ID: f.ID, Name: f.Name, State: f.State, Region: f.Region, Setting: setting})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// directorySource overrides the facility directory of another source.
type directorySource struct {
	Source
	facilities []core.Facility
	byID       map[string]core.Facility
}

// WithDirectory returns src with its facility lookups answered from facilities.
func WithDirectory(src Source, facilities []core.Facility) Source {
	byID := make(map[string]core.Facility, len(facilities))
	for _, f := range facilities {
		byID[f.ID] = f
	}
	return &directorySource{Source: src, facilities: facilities, byID: byID}
}

func (d *directorySource) Facilities(_ context.Context) ([]core.Facility, error) {
	return append([]core.Facility(nil), d.facilities...), nil
}

func (d *directorySource) Facility(_ context.Context, id string) (core.Facility, error) {
	f, ok := d.byID[id]
	if !ok {
		return core.Facility{}, fmt.Errorf("%w: %s", core.ErrUnknownFacility, id)
	}
	return f, nil
}
