package usecases

import (
	"fmt"
	"math"

	"github.com/samirrijal/lgatracker/internal/core/domain"
)

// ComputeProgress derives progress statistics. Percentage is rounded to one decimal place
// and is zero when total is zero.
func ComputeProgress(total, visited int) domain.ProgressStats {
	var pct float64
	if total > 0 {
		pct = math.Round(float64(visited)/float64(total)*1000) / 10
	}
	return domain.ProgressStats{Total: total, Visited: visited, Percentage: pct}
}

// FormatProgress renders stats the way the progress card shows them.
func FormatProgress(s domain.ProgressStats) string {
	return fmt.Sprintf("Visited %d of %d LGAs (%.1f%%)", s.Visited, s.Total, s.Percentage)
}
