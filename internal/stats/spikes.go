// Package stats computes per-turn result summaries and z-score spike
// detection over daily message counts.
package stats

import (
	"math"
	"sort"
	"time"

	"msglens/internal/dataset"
)

// DefaultZThreshold is the |z| cutoff above which a day counts as a spike.
const DefaultZThreshold = 2.0

// Spike is one flagged day in the observed window.
type Spike struct {
	Day   time.Time
	Z     float64
	Count int
}

// SpikeReport is the outcome of a spike check for a single category.
//
// Insufficient distinguishes "the baseline has fewer than two active days, so
// a standard deviation is undefined" from "the baseline was fine and nothing
// spiked" — callers must never see NaN z-scores.
type SpikeReport struct {
	Category     string
	BaselineMean float64
	BaselineStd  float64
	Spikes       []Spike
	Insufficient bool
}

// day truncates a timestamp to its calendar day in its own location.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DailyCounts groups messages by calendar day. Days with no messages are
// absent from the map, not zero-filled.
func DailyCounts(messages []dataset.Message) map[time.Time]int {
	counts := make(map[time.Time]int)
	for _, m := range messages {
		counts[day(m.Timestamp)]++
	}
	return counts
}

// meanStd returns the mean and sample standard deviation of the values.
// With fewer than two values the standard deviation is undefined.
func meanStd(values []int) (mean, std float64, ok bool) {
	if len(values) < 2 {
		return 0, 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += float64(v)
	}
	mean = sum / float64(len(values))

	var ss float64
	for _, v := range values {
		d := float64(v) - mean
		ss += d * d
	}
	std = math.Sqrt(ss / float64(len(values)-1))
	return mean, std, true
}

// DetectSpikes flags days in the filtered window whose message count deviates
// from the category's global baseline by at least threshold standard
// deviations.
//
// The baseline is computed over the entire dataset for the category,
// independent of the active filter window, so a narrow view is still judged
// against the category's normal daily volume. Flagged days come back in
// ascending date order. Only call this for a single-category view; a
// mixed-category baseline is not meaningful.
func DetectSpikes(window []dataset.Message, category string, full *dataset.Dataset, threshold float64) SpikeReport {
	report := SpikeReport{Category: category}

	var baseline []dataset.Message
	for _, m := range full.Messages() {
		if m.Category == category {
			baseline = append(baseline, m)
		}
	}

	baselineCounts := DailyCounts(baseline)
	values := make([]int, 0, len(baselineCounts))
	for _, c := range baselineCounts {
		values = append(values, c)
	}

	mean, std, ok := meanStd(values)
	if !ok || std == 0 {
		report.Insufficient = true
		return report
	}
	report.BaselineMean = mean
	report.BaselineStd = std

	windowCounts := DailyCounts(window)
	days := make([]time.Time, 0, len(windowCounts))
	for d := range windowCounts {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	for _, d := range days {
		count := windowCounts[d]
		z := (float64(count) - mean) / std
		if math.Abs(z) >= threshold {
			report.Spikes = append(report.Spikes, Spike{Day: d, Z: z, Count: count})
		}
	}
	return report
}
