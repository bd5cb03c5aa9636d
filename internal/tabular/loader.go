// Package tabular loads a tabular data model far enough to produce the
// object counts needed for scoring. It reads both TMSL model files
// (model.bim) and TMDL definition folders, but deliberately stops at
// structural counting - full model semantics belong to the external analyzer.
package tabular

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/trannammai/pbilint/pkg/bpa"
)

// FeatureMode selects how much of the model surface is counted.
type FeatureMode int

const (
	// FeatureFull counts every measure and column, calculated ones included.
	FeatureFull FeatureMode = iota
	// FeatureRestricted excludes calculated columns from the counts.
	FeatureRestricted
)

// String returns the string representation of the mode.
func (m FeatureMode) String() string {
	if m == FeatureRestricted {
		return "restricted"
	}
	return "full"
}

// LoadOptions controls model loading behavior.
type LoadOptions struct {
	// AutoFixConsistency drops duplicate object declarations instead of
	// failing the load.
	AutoFixConsistency bool
	// DetectLocalChanges fails the load when the model folder carries
	// unsaved local-editor changes.
	DetectLocalChanges bool
	// Mode selects the counted feature surface.
	Mode FeatureMode
}

// DefaultLoadOptions is the fixed configuration used by the scoring pipeline:
// consistency fix-up on, local-change detection off, full feature mode.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{AutoFixConsistency: true}
}

// unsavedMarker is written by the local editor while a model has pending
// changes on disk.
const unsavedMarker = ".pbi/unsavedFiles.json"

// Loader reads model files into a bpa.ModelSummary snapshot.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader. A nil logger gets slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads the model at path and returns its object counts. The summary is
// a snapshot taken now; later edits to the model are not reflected.
func (l *Loader) Load(path string, opts LoadOptions) (bpa.ModelSummary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return bpa.ModelSummary{}, fmt.Errorf("loading model %s: %w", path, err)
	}

	if opts.DetectLocalChanges {
		root := path
		if !info.IsDir() {
			root = filepath.Dir(path)
		}
		if _, err := os.Stat(filepath.Join(root, unsavedMarker)); err == nil {
			return bpa.ModelSummary{}, fmt.Errorf("model %s has unsaved local changes", path)
		}
	}

	if !info.IsDir() {
		return l.loadTMSL(path, opts)
	}

	// Directory: a TMDL definition folder, an item folder containing one,
	// or an item folder containing a model.bim.
	for _, candidate := range []string{path, filepath.Join(path, "definition")} {
		if isTMDLDir(candidate) {
			return l.loadTMDL(candidate, opts)
		}
	}
	if bim := filepath.Join(path, "model.bim"); fileExists(bim) {
		return l.loadTMSL(bim, opts)
	}

	return bpa.ModelSummary{}, fmt.Errorf("no model definition found under %s", path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// isTMDLDir reports whether dir looks like a TMDL definition folder.
func isTMDLDir(dir string) bool {
	if fileExists(filepath.Join(dir, "model.tmdl")) || fileExists(filepath.Join(dir, "database.tmdl")) {
		return true
	}
	entries, err := os.ReadDir(filepath.Join(dir, "tables"))
	return err == nil && len(entries) > 0
}

// =============================================================================
// TMSL (model.bim)
// =============================================================================

type bimFile struct {
	Name  string   `json:"name"`
	Model bimModel `json:"model"`
}

type bimModel struct {
	Tables []bimTable `json:"tables"`
}

type bimTable struct {
	Name     string       `json:"name"`
	Columns  []bimColumn  `json:"columns"`
	Measures []bimMeasure `json:"measures"`
}

type bimColumn struct {
	Name string `json:"name"`
	Type string `json:"type"` // "calculated" for calculated columns
}

type bimMeasure struct {
	Name string `json:"name"`
}

func (l *Loader) loadTMSL(path string, opts LoadOptions) (bpa.ModelSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return bpa.ModelSummary{}, fmt.Errorf("loading model %s: %w", path, err)
	}

	var file bimFile
	if err := json.Unmarshal(data, &file); err != nil {
		return bpa.ModelSummary{}, fmt.Errorf("parsing model %s: %w", path, err)
	}

	summary := bpa.ModelSummary{Name: file.Name}
	if summary.Name == "" {
		summary.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	for _, table := range file.Model.Tables {
		summary.TableCount++
		seen := make(map[string]bool)
		for _, col := range table.Columns {
			if opts.Mode == FeatureRestricted && strings.EqualFold(col.Type, "calculated") {
				continue
			}
			ok, err := l.admit(seen, table.Name, "column", col.Name, opts)
			if err != nil {
				return bpa.ModelSummary{}, err
			}
			if ok {
				summary.ColumnCount++
			}
		}
		for _, m := range table.Measures {
			ok, err := l.admit(seen, table.Name, "measure", m.Name, opts)
			if err != nil {
				return bpa.ModelSummary{}, err
			}
			if ok {
				summary.MeasureCount++
			}
		}
	}

	l.logSummary(path, summary, opts)
	return summary, nil
}

// admit tracks object names per table and applies the consistency fix-up
// policy to duplicates.
func (l *Loader) admit(seen map[string]bool, table, kind, name string, opts LoadOptions) (bool, error) {
	key := strings.ToLower(name)
	if !seen[key] {
		seen[key] = true
		return true, nil
	}
	if !opts.AutoFixConsistency {
		return false, fmt.Errorf("inconsistent model: duplicate %s %q in table %q", kind, name, table)
	}
	l.logger.Debug("consistency fix-up: dropped duplicate object", "table", table, "kind", kind, "name", name)
	return false, nil
}

// =============================================================================
// TMDL (definition folder)
// =============================================================================

func (l *Loader) loadTMDL(dir string, opts LoadOptions) (bpa.ModelSummary, error) {
	summary := bpa.ModelSummary{Name: filepath.Base(filepath.Dir(dir))}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".tmdl") {
			return nil
		}
		return l.countTMDLFile(path, &summary, opts)
	})
	if err != nil {
		return bpa.ModelSummary{}, fmt.Errorf("loading model %s: %w", dir, err)
	}

	l.logSummary(dir, summary, opts)
	return summary, nil
}

// countTMDLFile scans one TMDL file for table, column, and measure
// declarations. TMDL is line oriented and indentation scoped: declarations
// start a line with the object keyword, and everything indented deeper than
// a declaration is its block (multi-line expressions, properties). Block
// lines are skipped so a DAX continuation starting with a keyword is never
// counted.
func (l *Loader) countTMDLFile(path string, summary *bpa.ModelSummary, opts LoadOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	table := ""
	seen := make(map[string]bool)
	blockIndent := -1 // indent of the declaration whose block we are inside
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		indent := len(raw) - len(strings.TrimLeft(raw, " \t"))
		if blockIndent >= 0 && indent > blockIndent {
			continue
		}
		blockIndent = -1

		keyword, rest, found := strings.Cut(line, " ")
		if keyword != "table" {
			// Any non-table member opens a block; table bodies stay
			// visible because they hold the declarations themselves.
			blockIndent = indent
		}
		if !found {
			continue
		}
		name, expr := splitTMDLName(rest)
		if name == "" {
			continue
		}

		switch keyword {
		case "table":
			table = name
			seen = make(map[string]bool)
			summary.TableCount++
		case "column":
			if opts.Mode == FeatureRestricted && expr != "" {
				continue // calculated column
			}
			ok, err := l.admit(seen, table, "column", name, opts)
			if err != nil {
				return err
			}
			if ok {
				summary.ColumnCount++
			}
		case "measure":
			ok, err := l.admit(seen, table, "measure", name, opts)
			if err != nil {
				return err
			}
			if ok {
				summary.MeasureCount++
			}
		}
	}
	return nil
}

// splitTMDLName extracts an optionally quoted object name and the trailing
// expression (text after "=") from a declaration remainder.
func splitTMDLName(rest string) (name, expr string) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", ""
	}

	if rest[0] == '\'' {
		end := strings.IndexByte(rest[1:], '\'')
		if end < 0 {
			return "", ""
		}
		name = rest[1 : end+1]
		rest = rest[end+2:]
	} else {
		name, rest, _ = strings.Cut(rest, " ")
		// Strip a glued "=" as in "column Foo= expr".
		if i := strings.IndexByte(name, '='); i >= 0 {
			rest = name[i:] + " " + rest
			name = name[:i]
		}
	}

	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "=") {
		expr = strings.TrimSpace(rest[1:])
	}
	return name, expr
}

func (l *Loader) logSummary(path string, s bpa.ModelSummary, opts LoadOptions) {
	l.logger.Info("model loaded",
		"path", path,
		"tables", s.TableCount,
		"columns", s.ColumnCount,
		"measures", s.MeasureCount,
		"mode", opts.Mode.String(),
	)
}
