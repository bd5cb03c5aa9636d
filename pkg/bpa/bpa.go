// Package bpa defines the shared data types exchanged with the best-practice
// analyzer collaborators: rule definitions fetched from a remote collection,
// violation records produced by analysis, and the model object summary used
// for scoring. These are DTOs - they carry data without behavior.
package bpa

// Rule is one best-practice rule definition from a rule collection.
// The expression language is owned by the external analyzer; this tool only
// passes rules through and reads their metadata.
type Rule struct {
	ID          string   `json:"ID"`
	Name        string   `json:"Name"`
	Category    string   `json:"Category,omitempty"`
	Description string   `json:"Description,omitempty"`
	Severity    Severity `json:"Severity"`
	Scope       string   `json:"Scope,omitempty"`
	Expression  string   `json:"Expression,omitempty"`
}

// Collection is a materialized rule collection.
type Collection struct {
	Rules []Rule
	// Source records where the collection was fetched from, for diagnostics.
	Source string
}

// Len returns the number of rules in the collection.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Rules)
}

// Violation is one model object failing one rule. Only Severity participates
// in scoring; the remaining fields are diagnostic context from the analyzer.
type Violation struct {
	RuleID     string   `json:"RuleID"`
	RuleName   string   `json:"RuleName,omitempty"`
	ObjectType string   `json:"ObjectType,omitempty"`
	ObjectName string   `json:"Object,omitempty"`
	Severity   Severity `json:"Severity"`
}

// ModelSummary is a snapshot of the scorable object counts of a loaded model,
// taken at load time. Counts never go negative.
type ModelSummary struct {
	Name         string
	MeasureCount int
	ColumnCount  int
	TableCount   int
}

// Objects returns the number of scorable objects: measures plus columns.
func (m ModelSummary) Objects() int {
	return m.MeasureCount + m.ColumnCount
}
