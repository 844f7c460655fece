package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"embedding-harmonizer/internal/app/registry"
)

func TestToExcel(t *testing.T) {
	// Arrange
	snap, err := registry.NewSnapshot(3, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), []registry.ModelDescriptor{
		{ModelKey: "ollama/all-minilm", Provider: registry.ProviderOllama, NativeDimension: registry.Dim(384), Status: registry.StatusAvailable},
		{
			ModelKey:               "openai/text-embedding-3-large",
			Provider:               registry.ProviderOpenAI,
			NativeDimension:        registry.Dim(3072),
			ConfigurableDimensions: true,
			SupportedDimensions:    []int{256, 1024, 3072},
			Status:                 registry.StatusNew,
		},
		{ModelKey: "gemini/embedding-001", Provider: registry.ProviderGemini, Status: registry.StatusUnavailable},
	})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	// Act
	require.NoError(t, ToExcel(snap, 1024, path))

	// Assert
	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Contains(t, file.Sheet, ModelsSheet)
	require.Contains(t, file.Sheet, SummarySheet)

	rows := file.Sheet[ModelsSheet].Rows
	require.Len(t, rows, 4)
	assert.Equal(t, "Model Key", rows[0].Cells[0].Value)

	actions := map[string]string{}
	for _, row := range rows[1:] {
		action := ""
		if len(row.Cells) > 7 {
			action = row.Cells[7].Value
		}
		actions[row.Cells[0].Value] = action
	}
	assert.Equal(t, map[string]string{
		"gemini/embedding-001":          "",
		"ollama/all-minilm":             "pad",
		"openai/text-embedding-3-large": "truncate",
	}, actions)
	assert.Equal(t, "256,1024,3072", rows[3].Cells[5].Value)
}

func TestAction(t *testing.T) {
	tests := []struct {
		name     string
		native   *int
		expected string
	}{
		{name: "shorter", native: registry.Dim(768), expected: "pad"},
		{name: "equal", native: registry.Dim(1024), expected: "passthrough"},
		{name: "longer", native: registry.Dim(1536), expected: "truncate"},
		{name: "unknown", native: nil, expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Action(registry.ModelDescriptor{NativeDimension: tt.native}, 1024))
		})
	}
}
