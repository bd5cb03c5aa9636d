package tabular

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trannammai/pbilint/internal/testutil"
)

const sampleBIM = `{
  "name": "AdventureWorks",
  "compatibilityLevel": 1605,
  "model": {
    "tables": [
      {
        "name": "Sales",
        "columns": [
          {"name": "OrderKey", "dataType": "int64"},
          {"name": "Amount", "dataType": "decimal"},
          {"name": "Margin", "type": "calculated"}
        ],
        "measures": [
          {"name": "Total Sales"},
          {"name": "Total Margin"}
        ]
      },
      {
        "name": "Date",
        "columns": [
          {"name": "DateKey"},
          {"name": "Year"}
        ]
      }
    ]
  }
}`

const sampleTMDL = `table Sales

	measure 'Total Sales' = SUM(Sales[Amount])
		formatString: #,0

	measure Orders = COUNTROWS(Sales)

	column OrderKey
		dataType: int64
		summarizeBy: none

	column Amount
		dataType: decimal

	column Margin = [Amount] - [Cost]
		dataType: decimal

	partition Sales = m
		mode: import
`

func writeBIM(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bim")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeTMDLItem(t *testing.T) string {
	t.Helper()
	item := filepath.Join(t.TempDir(), "Sales.SemanticModel")
	tables := filepath.Join(item, "definition", "tables")
	require.NoError(t, os.MkdirAll(tables, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(item, "definition", "model.tmdl"), []byte("model Model\n\tculture: en-US\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tables, "Sales.tmdl"), []byte(sampleTMDL), 0o644))
	return item
}

func TestLoadTMSL(t *testing.T) {
	loader := NewLoader(testutil.NewTestLogger(t))

	summary, err := loader.Load(writeBIM(t, sampleBIM), DefaultLoadOptions())
	require.NoError(t, err)

	assert.Equal(t, "AdventureWorks", summary.Name)
	assert.Equal(t, 2, summary.TableCount)
	assert.Equal(t, 5, summary.ColumnCount)
	assert.Equal(t, 2, summary.MeasureCount)
	assert.Equal(t, 7, summary.Objects())
}

func TestLoadTMSLRestrictedMode(t *testing.T) {
	loader := NewLoader(testutil.NewTestLogger(t))

	opts := DefaultLoadOptions()
	opts.Mode = FeatureRestricted
	summary, err := loader.Load(writeBIM(t, sampleBIM), opts)
	require.NoError(t, err)

	// The calculated Margin column is excluded.
	assert.Equal(t, 4, summary.ColumnCount)
	assert.Equal(t, 2, summary.MeasureCount)
}

func TestLoadTMSLDuplicateObjects(t *testing.T) {
	const dup = `{
  "model": {"tables": [{
    "name": "Sales",
    "columns": [{"name": "Amount"}, {"name": "amount"}]
  }]}
}`
	loader := NewLoader(testutil.NewTestLogger(t))

	t.Run("fix-up enabled drops the duplicate", func(t *testing.T) {
		summary, err := loader.Load(writeBIM(t, dup), DefaultLoadOptions())
		require.NoError(t, err)
		assert.Equal(t, 1, summary.ColumnCount)
	})

	t.Run("fix-up disabled fails the load", func(t *testing.T) {
		_, err := loader.Load(writeBIM(t, dup), LoadOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate column")
	})
}

func TestLoadTMSLMalformed(t *testing.T) {
	loader := NewLoader(testutil.NewTestLogger(t))
	_, err := loader.Load(writeBIM(t, "{not json"), DefaultLoadOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing model")
}

func TestLoadTMDL(t *testing.T) {
	loader := NewLoader(testutil.NewTestLogger(t))

	item := writeTMDLItem(t)
	summary, err := loader.Load(item, DefaultLoadOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TableCount)
	assert.Equal(t, 3, summary.ColumnCount)
	assert.Equal(t, 2, summary.MeasureCount)
	assert.Equal(t, 5, summary.Objects())
}

func TestLoadTMDLMultilineExpressions(t *testing.T) {
	// Continuation lines of a multi-line DAX expression sit deeper than the
	// declaration; they must not be counted even when they start with a
	// declaration keyword.
	const tmdl = `table Facts

	measure Commentary =
		VAR label = "per
		column Amount"
		RETURN label

	measure Rows = COUNTROWS(Facts)

	column Amount
		dataType: decimal
`
	tables := filepath.Join(t.TempDir(), "Facts.SemanticModel", "definition", "tables")
	require.NoError(t, os.MkdirAll(tables, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tables, "Facts.tmdl"), []byte(tmdl), 0o644))

	loader := NewLoader(testutil.NewTestLogger(t))
	summary, err := loader.Load(filepath.Dir(filepath.Dir(tables)), DefaultLoadOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TableCount)
	assert.Equal(t, 2, summary.MeasureCount)
	assert.Equal(t, 1, summary.ColumnCount)
}

func TestLoadTMDLDefinitionDirDirectly(t *testing.T) {
	loader := NewLoader(testutil.NewTestLogger(t))

	item := writeTMDLItem(t)
	summary, err := loader.Load(filepath.Join(item, "definition"), DefaultLoadOptions())
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Objects())
}

func TestLoadTMDLRestrictedMode(t *testing.T) {
	loader := NewLoader(testutil.NewTestLogger(t))

	opts := DefaultLoadOptions()
	opts.Mode = FeatureRestricted
	summary, err := loader.Load(writeTMDLItem(t), opts)
	require.NoError(t, err)

	// Margin is a calculated column in the TMDL fixture.
	assert.Equal(t, 2, summary.ColumnCount)
}

func TestLoadDetectLocalChanges(t *testing.T) {
	loader := NewLoader(testutil.NewTestLogger(t))

	item := writeTMDLItem(t)
	require.NoError(t, os.MkdirAll(filepath.Join(item, ".pbi"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(item, ".pbi", "unsavedFiles.json"), []byte("{}"), 0o644))

	opts := DefaultLoadOptions()
	opts.DetectLocalChanges = true
	_, err := loader.Load(item, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsaved local changes")

	// The scoring pipeline runs with detection disabled and must not care.
	_, err = loader.Load(item, DefaultLoadOptions())
	assert.NoError(t, err)
}

func TestLoadMissingPath(t *testing.T) {
	loader := NewLoader(testutil.NewTestLogger(t))
	_, err := loader.Load(filepath.Join(t.TempDir(), "nope.bim"), DefaultLoadOptions())
	assert.Error(t, err)
}

func TestLoadEmptyDir(t *testing.T) {
	loader := NewLoader(testutil.NewTestLogger(t))
	_, err := loader.Load(t.TempDir(), DefaultLoadOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no model definition")
}

func TestSplitTMDLName(t *testing.T) {
	tests := []struct {
		rest string
		name string
		expr string
	}{
		{"Sales", "Sales", ""},
		{"'Total Sales' = SUM(x)", "Total Sales", "SUM(x)"},
		{"Margin = [A] - [B]", "Margin", "[A] - [B]"},
		{"Margin= [A]", "Margin", "[A]"},
		{"'Unterminated", "", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		name, expr := splitTMDLName(tt.rest)
		assert.Equal(t, tt.name, name, "name for %q", tt.rest)
		assert.Equal(t, tt.expr, expr, "expr for %q", tt.rest)
	}
}
