package usecases_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samirrijal/lgatracker/internal/core/domain"
	"github.com/samirrijal/lgatracker/internal/core/usecases"
)

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name           string
		total, visited int
		want           float64
	}{
		{"empty registry", 0, 0, 0},
		{"empty registry with visits", 0, 4, 0},
		{"three of ten", 10, 3, 30.0},
		{"half", 2, 1, 50.0},
		{"rounds down", 3, 1, 33.3},
		{"rounds up", 3, 2, 66.7},
		{"all", 537, 537, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecases.ComputeProgress(tt.total, tt.visited)
			assert.Equal(t, tt.total, got.Total)
			assert.Equal(t, tt.visited, got.Visited)
			assert.InDelta(t, tt.want, got.Percentage, 1e-9)
		})
	}
}

func TestFormatProgress(t *testing.T) {
	s := domain.ProgressStats{Total: 537, Visited: 12, Percentage: 2.2}
	assert.Equal(t, "Visited 12 of 537 LGAs (2.2%)", usecases.FormatProgress(s))
	assert.Equal(t, "Visited 0 of 0 LGAs (0.0%)", usecases.FormatProgress(usecases.ComputeProgress(0, 0)))
}
