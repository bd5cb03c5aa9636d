// Package visuals scores report visuals against a visual-inspector result
// file. The inspector itself is an external collaborator; this package counts
// the visuals in a report definition and aggregates the inspector's findings
// into the same bounded 0-10 score shape used for semantic models.
package visuals

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/trannammai/pbilint/internal/report"
)

// Inspector log types. Anything else counts as informational.
const (
	logTypeError   = 0
	logTypeWarning = 1
)

// failedCheckWeight is the count charged for a check whose Actual value is
// the literal false rather than a list of offending visuals.
const failedCheckWeight = 5

// InspectionResults is the inspector's output document.
type InspectionResults struct {
	Results []CheckResult `json:"Results"`
}

// CheckResult is one rule outcome from the inspector. Actual is either the
// literal false (the whole check failed) or an array of offending visuals.
type CheckResult struct {
	Name    string          `json:"Name"`
	LogType int             `json:"LogType"`
	Actual  json.RawMessage `json:"Actual"`
}

// count converts the Actual payload into a violation count: a false check
// costs failedCheckWeight, a list costs its length, anything else costs zero.
func (c CheckResult) count() int {
	var failed bool
	if err := json.Unmarshal(c.Actual, &failed); err == nil {
		if !failed {
			return failedCheckWeight
		}
		return 0
	}
	var items []json.RawMessage
	if err := json.Unmarshal(c.Actual, &items); err == nil {
		return len(items)
	}
	return 0
}

// Summary mirrors the model score report for a report's visuals.
type Summary struct {
	Objects  int    `json:"objects"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
	Infos    int    `json:"infos"`
	Score    string `json:"score"`
}

// reportFile is the slice of report.json this package reads: sections and
// their visual containers.
type reportFile struct {
	Sections []struct {
		VisualContainers []json.RawMessage `json:"visualContainers"`
	} `json:"sections"`
}

// CountVisuals counts the visuals in the report.json under reportDir.
func CountVisuals(reportDir string) (int, error) {
	path := filepath.Join(reportDir, "report.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading report definition: %w", err)
	}

	var rf reportFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	total := 0
	for _, section := range rf.Sections {
		total += len(section.VisualContainers)
	}
	return total, nil
}

// LoadResults reads an inspector results file.
func LoadResults(path string) (*InspectionResults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inspection results: %w", err)
	}

	var results InspectionResults
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &results, nil
}

// Aggregate tallies inspector results across nVisuals visuals and derives the
// bounded score: errors weigh double in the penalty, the penalty is spread
// over the visuals and scaled by five, and a report with no visuals scores 0.
func Aggregate(results *InspectionResults, nVisuals int, logger *slog.Logger) Summary {
	if logger == nil {
		logger = slog.Default()
	}

	summary := Summary{Objects: nVisuals}
	penalty := 0
	for _, res := range results.Results {
		n := res.count()
		switch res.LogType {
		case logTypeError:
			summary.Errors += n
			penalty += n * 2
		case logTypeWarning:
			summary.Warnings += n
			penalty += n
		default:
			summary.Infos += n
		}
		if n > 0 {
			logger.Debug("visual check flagged", "check", res.Name, "logType", res.LogType, "count", n)
		}
	}

	score := 0.0
	if nVisuals > 0 {
		score = 10 - float64(penalty)/float64(nVisuals)*5
		if score < 0 {
			score = 0
		}
	}
	summary.Score = report.FormatScore(score)
	return summary
}
