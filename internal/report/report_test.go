package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trannammai/pbilint/pkg/bpa"
)

func TestTally(t *testing.T) {
	tests := []struct {
		name       string
		violations []bpa.Violation
		infos      int
		warnings   int
		errors     int
	}{
		{
			name: "empty input",
		},
		{
			name: "one of each",
			violations: []bpa.Violation{
				{Severity: bpa.SeverityInfo},
				{Severity: bpa.SeverityWarning},
				{Severity: bpa.SeverityError},
			},
			infos:    1,
			warnings: 1,
			errors:   1,
		},
		{
			name: "unknown severities are dropped",
			violations: []bpa.Violation{
				{Severity: 0},
				{Severity: 4},
				{Severity: -1},
				{Severity: bpa.SeverityWarning},
			},
			warnings: 1,
		},
		{
			name: "order is irrelevant",
			violations: []bpa.Violation{
				{Severity: bpa.SeverityError},
				{Severity: bpa.SeverityInfo},
				{Severity: bpa.SeverityError},
				{Severity: bpa.SeverityInfo},
			},
			infos:  2,
			errors: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			infos, warnings, errors := Tally(tt.violations)
			assert.Equal(t, tt.infos, infos, "infos")
			assert.Equal(t, tt.warnings, warnings, "warnings")
			assert.Equal(t, tt.errors, errors, "errors")
		})
	}
}

func TestTallyNeverExceedsInput(t *testing.T) {
	violations := []bpa.Violation{
		{Severity: 1}, {Severity: 2}, {Severity: 3},
		{Severity: 7}, {Severity: 0},
	}
	infos, warnings, errors := Tally(violations)
	assert.Equal(t, 3, infos+warnings+errors)
	assert.LessOrEqual(t, infos+warnings+errors, len(violations))
}

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name     string
		objects  int
		warnings int
		errors   int
		want     float64
	}{
		{name: "clean model scores 10", objects: 42, want: 10},
		{name: "single object clean", objects: 1, want: 10},
		{name: "worked example", objects: 100, warnings: 10, errors: 2, want: 9},
		{name: "clamped at zero", objects: 5, errors: 5, want: 0},
		{name: "zero objects scores zero", objects: 0, want: 0},
		{name: "zero objects with violations", objects: 0, warnings: 3, errors: 1, want: 0},
		{name: "fractional score", objects: 8, warnings: 1, want: 10 - 5.0/8.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeScore(tt.objects, tt.warnings, tt.errors)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestComputeScoreMonotonic(t *testing.T) {
	const objects = 50
	prev := ComputeScore(objects, 0, 0)
	assert.Equal(t, 10.0, prev)

	for w := 1; w <= 30; w++ {
		s := ComputeScore(objects, w, 0)
		assert.LessOrEqual(t, s, prev, "score must not increase with warnings")
		prev = s
	}

	prev = ComputeScore(objects, 0, 0)
	for e := 1; e <= 30; e++ {
		s := ComputeScore(objects, 0, e)
		assert.LessOrEqual(t, s, prev, "score must not increase with errors")
		prev = s
	}
}

func TestComputeScoreBounds(t *testing.T) {
	for objects := 0; objects <= 20; objects++ {
		for w := 0; w <= 20; w += 5 {
			for e := 0; e <= 20; e += 5 {
				s := ComputeScore(objects, w, e)
				assert.GreaterOrEqual(t, s, 0.0)
				assert.LessOrEqual(t, s, 10.0)
			}
		}
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{10, "10.00"},
		{0, "0.00"},
		{9, "9.00"},
		{8.5, "8.50"},
		{7.375, "7.38"},
		{1.005, "1.00"}, // 1.005 is stored below 1.005 in binary
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatScore(tt.in), "FormatScore(%v)", tt.in)
	}
}

func TestBuild(t *testing.T) {
	summary := bpa.ModelSummary{MeasureCount: 40, ColumnCount: 60}
	violations := []bpa.Violation{
		{RuleID: "META_01", Severity: bpa.SeverityError},
		{RuleID: "META_02", Severity: bpa.SeverityError},
	}
	for i := 0; i < 10; i++ {
		violations = append(violations, bpa.Violation{RuleID: "PERF_01", Severity: bpa.SeverityWarning})
	}

	rep := Build(summary, violations)
	assert.Equal(t, 100, rep.Objects)
	assert.Equal(t, 2, rep.Errors)
	assert.Equal(t, 10, rep.Warnings)
	assert.Equal(t, 0, rep.Infos)
	assert.Equal(t, "9.00", rep.Score)
}

func TestBuildJSONShape(t *testing.T) {
	rep := Build(bpa.ModelSummary{MeasureCount: 40, ColumnCount: 60}, []bpa.Violation{
		{Severity: bpa.SeverityError},
		{Severity: bpa.SeverityError},
		{Severity: bpa.SeverityWarning}, {Severity: bpa.SeverityWarning},
		{Severity: bpa.SeverityWarning}, {Severity: bpa.SeverityWarning},
		{Severity: bpa.SeverityWarning}, {Severity: bpa.SeverityWarning},
		{Severity: bpa.SeverityWarning}, {Severity: bpa.SeverityWarning},
		{Severity: bpa.SeverityWarning}, {Severity: bpa.SeverityWarning},
	})

	data, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.JSONEq(t, `{"objects":100,"errors":2,"warnings":10,"infos":0,"score":"9.00"}`, string(data))

	// Exactly the five contract keys, no more.
	var keys map[string]any
	require.NoError(t, json.Unmarshal(data, &keys))
	assert.Len(t, keys, 5)
}

func TestBuildEmptyModel(t *testing.T) {
	rep := Build(bpa.ModelSummary{}, nil)
	assert.Equal(t, 0, rep.Objects)
	assert.Equal(t, "0.00", rep.Score)
}
