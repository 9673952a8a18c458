package facts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapkpi/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDirectory(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "facilities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDirectory(t *testing.T) {
	path := writeDirectory(t, `
facilities:
  - id: F2
    name: Maple Court
    state: OH
    region: Midwest
    setting: snf
  - id: F1
    name: Birch House
    state: MI
    setting: ALF
`)
	facilities, err := LoadDirectory(path)
	require.NoError(t, err)
	require.Len(t, facilities, 2)
	assert.Equal(t, "F1", facilities[0].ID)
	assert.Equal(t, core.SettingALF, facilities[0].Setting)
	assert.Equal(t, core.SettingSNF, facilities[1].Setting)
	assert.Empty(t, facilities[0].Region)
}

func TestLoadDirectory_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing id", "facilities:\n  - name: x\n", "has no id"},
		{"duplicate", "facilities:\n  - id: A\n  - id: A\n", "duplicate id"},
		{"bad setting", "facilities:\n  - id: A\n    setting: hospital\n", "unknown setting"},
		{"bad yaml", "facilities: [", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDirectory(writeDirectory(t, tt.content))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, err := LoadDirectory(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWithDirectory(t *testing.T) {
	ctx := context.Background()
	base := NewMemorySource(core.Facility{ID: "F1", State: "TX"})
	base.AddCensus(core.CensusFact{FacilityID: "F1", PeriodID: "2024-01", PayerCategory: core.PayerMedicaid, Days: 1})

	src := WithDirectory(base, []core.Facility{{ID: "F1", State: "OH"}, {ID: "F2", State: "MI"}})

	facilities, err := src.Facilities(ctx)
	require.NoError(t, err)
	assert.Len(t, facilities, 2)

	f, err := src.Facility(ctx, "F1")
	require.NoError(t, err)
	assert.Equal(t, "OH", f.State)

	_, err = src.Facility(ctx, "F3")
	assert.ErrorIs(t, err, core.ErrUnknownFacility)

	census, err := src.CensusFacts(ctx, "F1", "2024-01")
	require.NoError(t, err)
	assert.Len(t, census, 1, "fact lookups pass through")
}
