// Package export writes registry snapshots to spreadsheets for review.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/tealeg/xlsx"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/registry"
)

// Sheet names written by ToExcel.
const (
	ModelsSheet  = "Models"
	SummarySheet = "Summary"
)

// ToExcel writes the models of snap and its compatibility report to an xlsx
// workbook at outputFilePath. targetDimension fills the action column.
func ToExcel(snap *registry.Snapshot, targetDimension int, outputFilePath string) error {
	file := xlsx.NewFile()

	if err := writeModels(file, snap, targetDimension); err != nil {
		return err
	}
	if err := writeSummary(file, registry.BuildReport(snap), targetDimension); err != nil {
		return err
	}

	if err := file.Save(outputFilePath); err != nil {
		return apperrors.Wrapf(err, "save %s", outputFilePath)
	}
	return nil
}

func writeModels(file *xlsx.File, snap *registry.Snapshot, targetDimension int) error {
	sheet, err := file.AddSheet(ModelsSheet)
	if err != nil {
		return apperrors.Wrap(err, "add models sheet")
	}

	headerRow := sheet.AddRow()
	for _, h := range []string{"Model Key", "Display Name", "Provider", "Native Dimension", "Configurable", "Supported Dimensions", "Status", "Action"} {
		headerRow.AddCell().Value = h
	}

	for _, m := range snap.All() {
		row := sheet.AddRow()
		row.AddCell().Value = m.ModelKey
		row.AddCell().Value = m.DisplayName
		row.AddCell().Value = string(m.Provider)
		if native, ok := m.Dimension(); ok {
			row.AddCell().SetInt(native)
		} else {
			row.AddCell().Value = ""
		}
		row.AddCell().Value = fmt.Sprint(m.ConfigurableDimensions)
		row.AddCell().Value = strings.Join(lo.Map(m.SupportedDimensions, func(d int, _ int) string {
			return fmt.Sprint(d)
		}), ",")
		row.AddCell().Value = string(m.Status)
		row.AddCell().Value = Action(m, targetDimension)
	}
	return nil
}

func writeSummary(file *xlsx.File, report registry.CompatibilityReport, targetDimension int) error {
	sheet, err := file.AddSheet(SummarySheet)
	if err != nil {
		return apperrors.Wrap(err, "add summary sheet")
	}

	addPair := func(label string, value int) {
		row := sheet.AddRow()
		row.AddCell().Value = label
		row.AddCell().SetInt(value)
	}

	addPair("Snapshot Version", int(report.Version))
	addPair("Target Dimension", targetDimension)
	addPair("Total", report.Total)
	addPair("Available", report.Available)
	addPair("New", report.New)
	addPair("Deprecated", report.Deprecated)
	addPair("Unavailable", report.Unavailable)

	sheet.AddRow()
	providers := lo.Keys(report.ByProvider)
	sort.Strings(providers)
	for _, p := range providers {
		addPair("Provider "+p, report.ByProvider[p])
	}

	dims := lo.Keys(report.ByDimension)
	sort.Ints(dims)
	for _, d := range dims {
		addPair(fmt.Sprintf("Dimension %d", d), report.ByDimension[d])
	}
	return nil
}

// Action names what standardizing a native-length vector of m to
// targetDimension does, or "" when the native dimension is unknown.
func Action(m registry.ModelDescriptor, targetDimension int) string {
	native, ok := m.Dimension()
	switch {
	case !ok:
		return ""
	case native < targetDimension:
		return "pad"
	case native > targetDimension:
		return "truncate"
	default:
		return "passthrough"
	}
}
