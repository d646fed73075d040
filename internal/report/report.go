// Package report renders stored weather rows as a fixed-width text table.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/i474232898/weather-data-collector/internal/weather"
)

// Column widths, measured in display cells.
const (
	PlaceWidth       = 16
	TemperatureWidth = 15
	PrimaryWidth     = 27
	SecondaryWidth   = 20
)

// cells measures display width independently of the process locale, so
// ambiguous-width runes such as '°' and 'ü' always count as one cell.
var cells = &runewidth.Condition{EastAsianWidth: false}

// Table describes how a report is labelled.
type Table struct {
	PrimaryLang   string
	SecondaryLang string
	Units         weather.Units
}

// FormatTemperature formats t with two decimals and the unit suffix, e.g. "8.90 °C".
func FormatTemperature(t float64, units weather.Units) string {
	return fmt.Sprintf("%.2f%s", t, units.Suffix())
}

// Render writes the header, a separator rule and one line per row to w.
func (tb Table) Render(w io.Writer, rows []weather.Row) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, line(
		"Place",
		"Temperature",
		fmt.Sprintf("Description (%s)", tb.PrimaryLang),
		fmt.Sprintf("Description (%s)", tb.SecondaryLang),
	))
	fmt.Fprintln(bw, strings.Repeat("-", PlaceWidth+TemperatureWidth+PrimaryWidth+SecondaryWidth))
	for _, r := range rows {
		fmt.Fprintln(bw, line(r.Place, FormatTemperature(r.Temperature, tb.Units), r.DescriptionPrimary, r.DescriptionSecondary))
	}
	fmt.Fprintln(bw)

	return bw.Flush()
}

func line(place, temp, primary, secondary string) string {
	return cells.FillRight(place, PlaceWidth) +
		cells.FillRight(temp, TemperatureWidth) +
		cells.FillRight(primary, PrimaryWidth) +
		cells.FillRight(secondary, SecondaryWidth)
}
