// Package report turns a materialized list of violation records and a model
// object summary into the scored quality report emitted on stdout.
package report

import (
	"strconv"

	"github.com/trannammai/pbilint/pkg/bpa"
)

// Scoring weights: an error costs five warnings, and every counted unit of
// penalty is scaled by five before being spread across the scorable objects.
const (
	errorWeight   = 5
	penaltyFactor = 5
	maxScore      = 10.0
)

// Report is the sole output entity. It is built once per invocation,
// serialized as a single JSON object, and never mutated afterwards.
type Report struct {
	Objects  int    `json:"objects"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
	Infos    int    `json:"infos"`
	Score    string `json:"score"`
}

// Tally partitions violations by severity. Severities outside the three
// defined levels are dropped without error, so the sum of the three buckets
// can be smaller than len(violations) but never larger. Order is irrelevant.
func Tally(violations []bpa.Violation) (infos, warnings, errors int) {
	for _, v := range violations {
		switch v.Severity {
		case bpa.SeverityInfo:
			infos++
		case bpa.SeverityWarning:
			warnings++
		case bpa.SeverityError:
			errors++
		}
	}
	return infos, warnings, errors
}

// ComputeScore derives the bounded model health score from the scorable
// object count and the weighted violation counts:
//
//	penalty = (warnings + errors*5) * 5
//	score   = max(10 - penalty/objects, 0)
//
// The score is non-increasing in warnings and errors for fixed objects > 0
// and never exceeds 10. A model with zero scorable objects has nothing to
// grade, so it scores 0 rather than dividing by zero; this matches how the
// visual scorer treats a report with no visuals.
func ComputeScore(objects, warnings, errors int) float64 {
	if objects <= 0 {
		return 0
	}
	penalty := float64(warnings+errors*errorWeight) * penaltyFactor
	score := maxScore - penalty/float64(objects)
	if score < 0 {
		return 0
	}
	return score
}

// FormatScore renders a score with exactly two digits after the decimal
// point, locale-independent. Rounding is strconv's round-half-to-even.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}

// Build assembles the complete report for a model summary and its violations.
func Build(summary bpa.ModelSummary, violations []bpa.Violation) Report {
	infos, warnings, errors := Tally(violations)
	objects := summary.Objects()
	return Report{
		Objects:  objects,
		Errors:   errors,
		Warnings: warnings,
		Infos:    infos,
		Score:    FormatScore(ComputeScore(objects, warnings, errors)),
	}
}
