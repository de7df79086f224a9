package analysis

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/catalog"
	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/pose"
)

// MaxScoredDeviation caps the per-joint deviation counted by Score
const MaxScoredDeviation = 45.0

// TipThreshold is the deviation in degrees above which a joint gets a tip
const TipThreshold = 20.0

// MaxTips is the number of tips reported per frame
const MaxTips = 3

// Score rates how closely the user angles match the reference, 0 to 100.
// Only joints present in both maps count; no overlap scores 0. Deviations
// are summed in joint ID order so the result never depends on map order.
func Score(user, reference pose.AngleMap) int {
	total := 0.0
	count := 0
	for _, joint := range slices.Sorted(maps.Keys(reference)) {
		ref := reference[joint]
		angle, ok := user[joint]
		if !ok {
			continue
		}
		total += math.Min(math.Abs(angle-ref), MaxScoredDeviation)
		count++
	}
	if count == 0 {
		return 0
	}
	avg := total / float64(count)
	return int(math.RoundToEven(math.Max(0, 100-avg*100/MaxScoredDeviation)))
}

// ScoreBand groups scores for presentation
type ScoreBand int

const (
	ScoreBandPoor ScoreBand = iota // Below 40
	ScoreBandFair                  // 40 to 69
	ScoreBandGood                  // 70 and above
)

func (b ScoreBand) String() string {
	switch b {
	case ScoreBandGood:
		return "good"
	case ScoreBandFair:
		return "fair"
	default:
		return "poor"
	}
}

// BandForScore returns the presentation band of a score
func BandForScore(score int) ScoreBand {
	switch {
	case score >= 70:
		return ScoreBandGood
	case score >= 40:
		return ScoreBandFair
	default:
		return ScoreBandPoor
	}
}

// Tips lists up to MaxTips short hints, in template order, for joints more
// than TipThreshold degrees away from the reference
func Tips(user pose.AngleMap, template catalog.StageTemplate) []string {
	var tips []string
	for _, ja := range template.Joints() {
		angle, ok := user[ja.Joint]
		if !ok {
			continue
		}
		diff := angle - ja.Angle
		if math.Abs(diff) <= TipThreshold {
			continue
		}
		if diff > 0 {
			tips = append(tips, fmt.Sprintf("%s: bend more", ja.Joint.DisplayName()))
		} else {
			tips = append(tips, fmt.Sprintf("%s: extend more", ja.Joint.DisplayName()))
		}
		if len(tips) == MaxTips {
			break
		}
	}
	return tips
}
