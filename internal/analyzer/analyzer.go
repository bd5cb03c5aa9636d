// Package analyzer invokes the external best-practice analyzer over a model
// and a rule collection and materializes the violation records it reports.
// Rule evaluation itself happens inside the collaborator; this package owns
// process invocation, output capture, and decoding only.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/trannammai/pbilint/pkg/bpa"
)

// Analyzer produces the violation records for a model checked against a rule
// collection. Implementations must return a fully materialized slice.
type Analyzer interface {
	Analyze(ctx context.Context, modelPath string, rules *bpa.Collection) ([]bpa.Violation, error)
}

// DefaultCommand is the analyzer invocation used when none is configured.
// {model} and {rules} are replaced per run.
var DefaultCommand = []string{"tabular-bpa", "--model", "{model}", "--rules", "{rules}"}

// ExecAnalyzer runs the analyzer as a subprocess. The child's stdout is
// captured and decoded, never forwarded, so the parent's stdout stays
// reserved for the final report. Child stderr goes to the injected logger.
type ExecAnalyzer struct {
	command []string
	logger  *slog.Logger
}

// NewExecAnalyzer creates an ExecAnalyzer for the given command template.
// An empty command falls back to DefaultCommand; a nil logger to
// slog.Default().
func NewExecAnalyzer(command []string, logger *slog.Logger) *ExecAnalyzer {
	if len(command) == 0 {
		command = DefaultCommand
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecAnalyzer{command: command, logger: logger}
}

// Analyze writes the rule collection to a scratch file, runs the analyzer
// command, and decodes every violation it reported.
func (a *ExecAnalyzer) Analyze(ctx context.Context, modelPath string, rules *bpa.Collection) ([]bpa.Violation, error) {
	if rules.Len() == 0 {
		return nil, fmt.Errorf("analyzing %s: empty rule collection", modelPath)
	}

	rulesPath, cleanup, err := writeRulesFile(rules)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	args := expandCommand(a.command, modelPath, rulesPath)
	a.logger.Debug("running analyzer", "command", strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if stderr.Len() > 0 {
		a.logger.Debug("analyzer stderr", "output", strings.TrimSpace(stderr.String()))
	}
	if runErr != nil {
		return nil, fmt.Errorf("running analyzer on %s: %w", modelPath, runErr)
	}

	violations, err := decodeViolations(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("analyzer output for %s: %w", modelPath, err)
	}

	a.logger.Info("analysis complete", "model", modelPath, "rules", rules.Len(), "violations", len(violations))
	return violations, nil
}

// writeRulesFile materializes the collection for the child process and
// returns the path plus a cleanup func.
func writeRulesFile(rules *bpa.Collection) (string, func(), error) {
	dir, err := os.MkdirTemp("", "pbilint-rules-")
	if err != nil {
		return "", nil, fmt.Errorf("staging rules: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	data, err := json.Marshal(rules.Rules)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("staging rules: %w", err)
	}

	path := filepath.Join(dir, "rules.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("staging rules: %w", err)
	}
	return path, cleanup, nil
}

func expandCommand(template []string, modelPath, rulesPath string) []string {
	args := make([]string, len(template))
	for i, arg := range template {
		arg = strings.ReplaceAll(arg, "{model}", modelPath)
		arg = strings.ReplaceAll(arg, "{rules}", rulesPath)
		args[i] = arg
	}
	return args
}

// decodeViolations pulls the last well-formed violations array out of mixed
// console output. Banner and progress lines carry brackets of their own
// ("[INFO] ...", timestamps), so bracket pairs are tried from the end of the
// output backwards until one decodes as a violations array.
func decodeViolations(output []byte) ([]bpa.Violation, error) {
	for end := bytes.LastIndexByte(output, ']'); end != -1; end = bytes.LastIndexByte(output[:end], ']') {
		for start := bytes.LastIndexByte(output[:end], '['); start != -1; start = bytes.LastIndexByte(output[:start], '[') {
			var violations []bpa.Violation
			if err := json.Unmarshal(output[start:end+1], &violations); err == nil {
				return violations, nil
			}
		}
	}
	return nil, fmt.Errorf("no violations JSON found in output: %.200s", strings.TrimSpace(string(output)))
}
