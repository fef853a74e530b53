package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rubric/internal/application"
	"github.com/ahrav/go-rubric/internal/domain"
)

// newWorkspace writes a config pointing at a fresh SQLite file and clears
// the environment overrides.
func newWorkspace(t *testing.T) (dir, configPath string) {
	t.Helper()
	for _, k := range []string{application.EnvDBDriver, application.EnvDBDSN, application.EnvRubricFile, application.EnvLogLevel} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	dir = t.TempDir()
	configPath = filepath.Join(dir, "rubricctl.yaml")
	body := "database:\n  driver: sqlite\n  dsn: file:" + filepath.Join(dir, "rubric.db") + "?mode=rwc\nlog_level: error\n"
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o600))
	return dir, configPath
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

const excellentSubmission = `
title: Final thesis presentation
date: 2024-03-01
student: {first_name: Ana, last_name: Ruiz, code: S1, group: A}
scores:
  - {criterion: ATTITUDE, indicator: Presentation and posture, label: Excellent}
  - {criterion: ATTITUDE, indicator: Tone of voice and language suited to the topic, label: Excellent}
  - {criterion: CONTENT, indicator: Order and sequence of the presentation, label: Excellent}
  - {criterion: CONTENT, indicator: "Visually engaging, favors graphics over text", label: Excellent}
  - {criterion: CONTENT, indicator: States objectives and results clearly, label: Excellent}
  - {criterion: CONTENT, indicator: Coherence with the written work, label: Excellent}
  - {criterion: ORAL DEFENSE, indicator: Shows command of the topic during the defense, label: Excellent}
  - {criterion: ORAL DEFENSE, indicator: Presents the research results precisely, label: Excellent}
  - {criterion: ORAL DEFENSE, indicator: "Answers the panel's questions correctly and confidently", label: Excellent}
  - {criterion: ORAL DEFENSE, indicator: Respects the alloted presentation time, label: Excellent}
`

// TestRun_EndToEnd seeds the store, submits an evaluation by indicator name
// and reads it back through every view.
func TestRun_EndToEnd(t *testing.T) {
	dir, cfg := newWorkspace(t)

	code, out, stderr := runCLI(t, "-config", cfg, "init")
	require.Equal(t, exitOK, code, stderr)
	var seeded application.SeedResult
	require.NoError(t, json.Unmarshal([]byte(out), &seeded))
	assert.Equal(t, application.SeedResult{Seeded: true, Criteria: 3, Indicators: 10, TotalMax: 20}, seeded)

	code, out, _ = runCLI(t, "-config", cfg, "init")
	require.Equal(t, exitOK, code)
	require.NoError(t, json.Unmarshal([]byte(out), &seeded))
	assert.False(t, seeded.Seeded)

	code, out, _ = runCLI(t, "-config", cfg, "rubric")
	require.Equal(t, exitOK, code)
	var tree domain.RubricTree
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	assert.Equal(t, 10, tree.IndicatorCount())

	doc := filepath.Join(dir, "submission.yaml")
	require.NoError(t, os.WriteFile(doc, []byte(excellentSubmission), 0o600))

	code, out, stderr = runCLI(t, "-config", cfg, "submit", "-file", doc)
	require.Equal(t, exitOK, code, stderr)
	var submitted submitResult
	require.NoError(t, json.Unmarshal([]byte(out), &submitted))
	assert.Positive(t, submitted.EvaluationID)
	assert.InDelta(t, 20.0, submitted.Detail.ScoreTotal, 1e-9)
	assert.InDelta(t, 10.0, submitted.Detail.OutOfTen, 1e-9)

	code, out, _ = runCLI(t, "-config", cfg, "history", "-code", "S1")
	require.Equal(t, exitOK, code)
	var summaries []domain.EvaluationSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, submitted.EvaluationID, summaries[0].ID)

	code, out, _ = runCLI(t, "-config", cfg, "history", "-code", "S1", "-detail")
	require.Equal(t, exitOK, code)
	var history []domain.EvaluationDetail
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	require.Len(t, history, 1)
	assert.InDelta(t, 20.0, history[0].ScoreTotal, 1e-9)

	code, out, _ = runCLI(t, "-config", cfg, "detail", "-id", "1")
	require.Equal(t, exitOK, code)
	var detail domain.EvaluationDetail
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	assert.Equal(t, "Final thesis presentation", detail.Title)
	assert.Equal(t, "S1", detail.Student.Code)
}

func TestRun_Usage(t *testing.T) {
	_, cfg := newWorkspace(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "no command", args: []string{"-config", cfg}, want: exitUsage},
		{name: "unknown command", args: []string{"-config", cfg, "grade"}, want: exitUsage},
		{name: "unknown global flag", args: []string{"-verbose"}, want: exitUsage},
		{name: "submit without file", args: []string{"-config", cfg, "submit"}, want: exitUsage},
		{name: "detail without id", args: []string{"-config", cfg, "detail"}, want: exitUsage},
		{name: "stray argument", args: []string{"-config", cfg, "rubric", "extra"}, want: exitUsage},
		{name: "missing config file", args: []string{"-config", cfg + ".missing", "rubric"}, want: exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			assert.Equal(t, tt.want, code)
		})
	}
}

// TestRun_CommandHelp verifies that -h on a command prints its flags.
func TestRun_CommandHelp(t *testing.T) {
	_, cfg := newWorkspace(t)

	tests := []struct {
		command string
		flag    string
	}{
		{command: "init", flag: "-rubric"},
		{command: "submit", flag: "-file"},
		{command: "history", flag: "-code"},
		{command: "detail", flag: "-id"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			code, out, stderr := runCLI(t, "-config", cfg, tt.command, "-h")
			assert.Equal(t, exitOK, code)
			assert.Empty(t, out)
			assert.Contains(t, stderr, "usage: rubricctl "+tt.command)
			assert.Contains(t, stderr, tt.flag)
		})
	}
}

// TestRun_CommandFlagError verifies that a bad command flag is reported.
func TestRun_CommandFlagError(t *testing.T) {
	_, cfg := newWorkspace(t)

	code, _, stderr := runCLI(t, "-config", cfg, "detail", "-id", "abc")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "invalid value")
	assert.Contains(t, stderr, "usage: rubricctl detail")
}

func TestRun_RejectedSubmission(t *testing.T) {
	dir, cfg := newWorkspace(t)

	code, _, _ := runCLI(t, "-config", cfg, "init")
	require.Equal(t, exitOK, code)

	doc := filepath.Join(dir, "partial.yaml")
	require.NoError(t, os.WriteFile(doc, []byte(`
title: Partial
date: 2024-03-01
student: {first_name: Ana, last_name: Ruiz, code: S1}
scores:
  - {indicator_id: 1, value: 1}
`), 0o600))

	code, _, stderr := runCLI(t, "-config", cfg, "submit", "-file", doc)
	assert.Equal(t, exitRejected, code)
	assert.Contains(t, stderr, "is not scored")

	code, out, _ := runCLI(t, "-config", cfg, "history", "-code", "S1")
	require.Equal(t, exitOK, code)
	assert.JSONEq(t, "[]", out)
}

func TestRun_DetailNotFound(t *testing.T) {
	_, cfg := newWorkspace(t)

	code, _, stderr := runCLI(t, "-config", cfg, "detail", "-id", "42")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "not found")
}

func TestRun_Metrics(t *testing.T) {
	_, cfg := newWorkspace(t)

	code, out, _ := runCLI(t, "-config", cfg, "-metrics", "init")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "rubric_operation_duration_seconds")
	assert.Contains(t, out, `rubric_operations_total{component="repository",operation="seed_rubric",status="success"} 1`)
}
