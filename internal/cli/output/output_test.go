package output

import (
	"bytes"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/leapstack-labs/leapkpi/internal/benchmark"
	"github.com/leapstack-labs/leapkpi/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func newTestRenderer(mode OutputMode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want OutputMode
	}{
		{"", ModeAuto},
		{"auto", ModeAuto},
		{"text", ModeText},
		{"TEXT", ModeText},
		{"markdown", ModeMarkdown},
		{"md", ModeMarkdown},
		{"json", ModeJSON},
		{"yaml", ModeAuto},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Mode(tt.in))
		})
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  OutputMode
		isTTY bool
		want  OutputMode
	}{
		{"auto on tty", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"empty piped", "", false, ModeMarkdown},
		{"explicit text piped", ModeText, false, ModeText},
		{"explicit markdown on tty", ModeMarkdown, true, ModeMarkdown},
		{"json on tty", ModeJSON, true, ModeJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		v    *float64
		unit core.Unit
		want string
	}{
		{"nil", nil, core.UnitCurrency, NA},
		{"currency", core.Float(1234.567), core.UnitCurrency, "$1,234.57"},
		{"negative currency", core.Float(-12.5), core.UnitCurrency, "-$12.50"},
		{"percentage", core.Float(12.3456), core.UnitPercentage, "12.35%"},
		{"hours", core.Float(3.5), core.UnitHours, "3.50 h"},
		{"number", core.Float(1000000), core.UnitNumber, "1,000,000.00"},
		{"unknown unit", core.Float(2), core.Unit("ratio"), "2.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.v, tt.unit))
		})
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(1, "Title"))
	assert.Equal(t, "### Sub", FormatHeader(3, "Sub"))
	assert.Equal(t, "# Zero", FormatHeader(0, "Zero"))
	assert.Equal(t, "**Period:** 2024-01", FormatKeyValue("Period", "2024-01"))
}

func TestMarkdownHasNoANSI(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeMarkdown, true)

	r.Header(1, "Results")
	r.KeyValue("Facility", "F1")
	r.Success("done")
	r.Muted("nothing else")
	r.StatusLine("F1", "completed", "23 results")
	r.Warning("No data for nursing_cost")

	assert.Contains(t, out.String(), "# Results")
	assert.Contains(t, out.String(), "**Facility:** F1")
	assert.Contains(t, out.String(), "- F1: completed")
	assert.Contains(t, errOut.String(), "warning: No data for nursing_cost")
	assert.False(t, ansi.MatchString(out.String()+errOut.String()))
}

func TestTable(t *testing.T) {
	tbl := Table{
		Headers:    []string{"KPI", "Value"},
		Rows:       [][]string{{"revenue_ppd", "$300.00"}, {"nursing_hprd", NA}},
		RightAlign: []int{1},
	}

	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeMarkdown, false)
		r.Table(tbl)
		assert.Contains(t, out.String(), "| KPI |")
		assert.Contains(t, out.String(), "| revenue_ppd |")
		assert.Contains(t, out.String(), "$300.00")
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText, false)
		r.Table(tbl)
		assert.Contains(t, out.String(), "KPI")
		assert.Contains(t, out.String(), "nursing_hprd")
		assert.Contains(t, out.String(), "─")
	})

	t.Run("json writes nothing", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeJSON, false)
		r.Table(tbl)
		assert.Empty(t, out.String())
	})
}

func TestJSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	results := []core.KPIResult{{
		FacilityID:      "F1",
		PeriodID:        "2024-01",
		KPIID:           "revenue_ppd",
		Value:           core.Float(300.123456),
		DenominatorType: core.DenominatorResidentDays,
		PayerScope:      core.AllPayerScope(),
		Unit:            core.UnitCurrency,
	}, {
		FacilityID: "F1",
		PeriodID:   "2024-01",
		KPIID:      "nursing_hprd",
		Warnings:   []string{"No data for nursing_hprd"},
	}}

	require.NoError(t, r.JSON(NewResultInfos(results)))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.InDelta(t, 300.123456, decoded[0]["value"], 1e-9)
	assert.Equal(t, "all", decoded[0]["payer_scope"])
	assert.Equal(t, []any{}, decoded[0]["warnings"])
	assert.Nil(t, decoded[1]["value"])
}

func TestLabelStyles(t *testing.T) {
	s := NewStyles(&bytes.Buffer{}, false)
	for _, label := range []string{
		benchmark.LabelTopQuartile,
		benchmark.LabelAboveMedian,
		benchmark.LabelBelowMedian,
		benchmark.LabelBottomQuartile,
	} {
		assert.Equal(t, label, s.Label(label).Render(label))
	}
}
