package coverage

import (
	"math"
	"sort"
	"strings"

	"github.com/thecodereport/tcdr/domain"
)

// DefaultHotspotLimit caps the hotspot list when no limit is configured
const DefaultHotspotLimit = 20

// hotspotFor returns a candidate for a method below full coverage
func hotspotFor(filePath, signature string, m Metrics, data *MethodData) (domain.Hotspot, bool) {
	pct := CoveragePercentage(m)
	if pct >= 100 {
		return domain.Hotspot{}, false
	}
	return domain.Hotspot{
		File:     filePath,
		Function: SimplifyMethodName(signature),
		Reason:   domain.HotspotReasonLowCoverage,
		Score:    math.Max(0, math.Min(100, 100-pct)),
		Lines:    strings.Join(UncoveredLines(data), ", "),
	}, true
}

// SelectHotspots keeps positive scores, highest first, truncated to limit.
// Equal scores keep their input order. A limit <= 0 uses DefaultHotspotLimit.
func SelectHotspots(candidates []domain.Hotspot, limit int) []domain.Hotspot {
	if limit <= 0 {
		limit = DefaultHotspotLimit
	}
	out := make([]domain.Hotspot, 0, len(candidates))
	for _, h := range candidates {
		if h.Score > 0 {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
