package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

// IngestMessage renders an ingestion event.
func IngestMessage(ev domain.IngestEvent) (title, message string) {
	title = fmt.Sprintf("%s: %d new draw(s)", ev.Variant, ev.Inserted)
	message = "Archive synced through " + ev.Through.Format(time.DateOnly) + "."
	return title, message
}

// PickMessage renders the per-category winners of a pick run.
func PickMessage(variant string, candidates []int, result domain.PickResult) (title, message string) {
	title = fmt.Sprintf("%s: pick from %d candidates", variant, len(candidates))

	var b strings.Builder
	b.WriteString("Candidates: " + joinInts(candidates) + "\n")
	for _, rec := range []domain.Recommendation{result.Best3, result.Best4, result.Best5} {
		fmt.Fprintf(&b, "%s: %s (%.4f)\n", rec.Category, joinInts(rec.Numbers), rec.Score)
	}
	return title, strings.TrimRight(b.String(), "\n")
}

// ExportMessage renders a finished cold-storage export.
func ExportMessage(variant string, asOf time.Time) (title, message string) {
	title = variant + ": export finished"
	message = "Draws and impact vectors exported as of " + asOf.Format(time.DateOnly) + "."
	return title, message
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, " ")
}
