package output

import (
	"math"
	"strings"

	"github.com/leapstack-labs/leapkpi/pkg/core"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NA is shown for null KPI values.
const NA = "n/a"

var printer = message.NewPrinter(language.English)

// FormatHeader formats a markdown header.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue formats a markdown key-value line.
func FormatKeyValue(key, value string) string {
	return "**" + key + ":** " + value
}

// FormatNumber rounds v to two decimals with digit grouping.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NA
	}
	return printer.Sprintf("%.2f", v)
}

// FormatValue renders a KPI value in its unit. Nil values render as NA.
func FormatValue(v *float64, unit core.Unit) string {
	if v == nil {
		return NA
	}
	switch unit {
	case core.UnitCurrency:
		if *v < 0 {
			return "-$" + FormatNumber(-*v)
		}
		return "$" + FormatNumber(*v)
	case core.UnitPercentage:
		return FormatNumber(*v) + "%"
	case core.UnitHours:
		return FormatNumber(*v) + " h"
	default:
		return FormatNumber(*v)
	}
}

// FormatFloat renders a non-null value in unit.
func FormatFloat(v float64, unit core.Unit) string {
	return FormatValue(&v, unit)
}
