package main_test

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles the lintchecks binary and returns the path.
// The binary is placed in t.TempDir() so it's cleaned up automatically.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "lintchecks"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "lintchecks")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot returns the root of the module by walking up from the test
// file's directory to find go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "could not find project root")
		dir = parent
	}
}

const (
	fixtureViewModel = `package com.example.app

import androidx.lifecycle.ViewModel
import kotlinx.coroutines.GlobalScope
import kotlinx.coroutines.launch

class MainViewModel : ViewModel() {
    fun load() {
        GlobalScope.launch { }
    }
}
`
	fixtureLayout = `<?xml version="1.0" encoding="utf-8"?>
<FrameLayout xmlns:android="http://schemas.android.com/apk/res/android"
    android:background="#FF018786" />
`
)

// createAppFixture creates a repository with one ViewModel launching on
// GlobalScope and one layout hardcoding a palette color.
func createAppFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	files := map[string]string{
		"app/build.gradle.kts": `dependencies { implementation("androidx.lifecycle:lifecycle-viewmodel-ktx:2.6.2") }` + "\n",
		"app/src/main/java/com/example/app/MainViewModel.kt": fixtureViewModel,
		"app/src/main/res/values/colors.xml":                 `<resources><color name="teal_700">#FF018786</color></resources>`,
		"app/src/main/res/layout/activity_main.xml":          fixtureLayout,
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

type envelope struct {
	Command    string         `json:"command"`
	TotalCount int            `json:"total_count"`
	Counts     map[string]int `json:"counts"`
	Error      string         `json:"error"`
	Results    []struct {
		RuleID string `json:"rule_id"`
		File   string `json:"file"`
		Fix    *struct {
			New string `json:"new"`
		} `json:"fix"`
	} `json:"results"`
}

// run executes the binary in dir and returns stdout, stderr and the exit code.
func run(t *testing.T, bin, dir string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	} else {
		require.NoError(t, err)
	}
	return stdout.String(), stderr.String(), code
}

func decodeEnvelope(t *testing.T, out string) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), "stdout: %s", out)
	return env
}

func TestCheck_JSON(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createAppFixture(t)

	stdout, stderr, code := run(t, bin, fixture, "check", "--format", "json", ".")
	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Contains(t, stderr, "Checked 4 files")

	env := decodeEnvelope(t, stdout)
	assert.Equal(t, "check", env.Command)
	assert.Equal(t, 2, env.TotalCount)
	assert.Equal(t, map[string]int{"GlobalScopeUsage": 1, "WrongColorUsage": 1}, env.Counts)
	require.Len(t, env.Results, 2)
	assert.Equal(t, "app/src/main/java/com/example/app/MainViewModel.kt", env.Results[0].File)
	require.NotNil(t, env.Results[0].Fix)
	assert.Equal(t, "viewModelScope", env.Results[0].Fix.New)
	require.NotNil(t, env.Results[1].Fix)
	assert.Equal(t, "@color/teal_700", env.Results[1].Fix.New)

	_, err := os.Stat(filepath.Join(fixture, ".lintchecks", "index.db"))
	assert.NoError(t, err, ".lintchecks/index.db should exist")
}

func TestCheck_FailOnIssues(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createAppFixture(t)

	_, stderr, code := run(t, bin, fixture, "check", "--fail-on-issues", ".")
	assert.Equal(t, 2, code, "stderr: %s", stderr)
	assert.NotContains(t, stderr, "Error:")
}

func TestCheck_DisableAndConfig(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createAppFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(fixture, ".lintchecks.yml"),
		[]byte("disabled_rules: [WrongColorUsage]\n"), 0o644))

	stdout, stderr, code := run(t, bin, fixture, "check", "--format", "json", "--fail-on-issues", "--disable", "GlobalScopeUsage", ".")
	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Equal(t, 0, decodeEnvelope(t, stdout).TotalCount)
}

func TestCheck_Fix(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createAppFixture(t)

	stdout, stderr, code := run(t, bin, fixture, "check", "--format", "json", "--fix", ".")
	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Contains(t, stderr, "Applied 2 fixes in 2 files")
	assert.Equal(t, 0, decodeEnvelope(t, stdout).TotalCount)

	src, err := os.ReadFile(filepath.Join(fixture, "app/src/main/java/com/example/app/MainViewModel.kt"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "viewModelScope.launch { }")

	layout, err := os.ReadFile(filepath.Join(fixture, "app/src/main/res/layout/activity_main.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(layout), `android:background="@color/teal_700"`)
}

func TestReport_FiltersStoredRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createAppFixture(t)

	_, stderr, code := run(t, bin, fixture, "check", ".")
	require.Equal(t, 0, code, "stderr: %s", stderr)

	stdout, stderr, code := run(t, bin, fixture, "report", "--format", "json", "--rule", "WrongColorUsage")
	require.Equal(t, 0, code, "stderr: %s", stderr)
	env := decodeEnvelope(t, stdout)
	require.Len(t, env.Results, 1)
	assert.Equal(t, "WrongColorUsage", env.Results[0].RuleID)

	stdout, _, code = run(t, bin, fixture, "report", "--format", "text", "--path", "app/src/main/java")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "MainViewModel.kt:9:9: warning: Don't use GlobalScope for coroutines [GlobalScopeUsage]")
	assert.NotContains(t, stdout, "activity_main.xml")
}

func TestReport_NoDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createAppFixture(t)

	_, stderr, code := run(t, bin, fixture, "report")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "database not found")
	assert.Equal(t, 1, strings.Count(stderr, "Error:"))
}

func TestHierarchy(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createAppFixture(t)

	_, stderr, code := run(t, bin, fixture, "check", ".")
	require.Equal(t, 0, code, "stderr: %s", stderr)

	stdout, stderr, code := run(t, bin, fixture, "hierarchy", "--format", "json", "MainViewModel")
	require.Equal(t, 0, code, "stderr: %s", stderr)

	var res struct {
		Results []struct {
			Type struct {
				QualifiedName string `json:"qualified_name"`
			} `json:"type"`
			File       string   `json:"file"`
			Imports    []string `json:"imports"`
			Ancestors  []string `json:"ancestors"`
			Supertypes []struct {
				Raw      string `json:"raw"`
				Resolved string `json:"resolved"`
			} `json:"supertypes"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	require.Len(t, res.Results, 1)
	h := res.Results[0]
	assert.Equal(t, "com.example.app.MainViewModel", h.Type.QualifiedName)
	assert.Equal(t, "app/src/main/java/com/example/app/MainViewModel.kt", h.File)
	assert.Equal(t, []string{"androidx.lifecycle.ViewModel"}, h.Ancestors)
	require.Len(t, h.Supertypes, 1)
	assert.Equal(t, "ViewModel", h.Supertypes[0].Raw)
	assert.Equal(t, "androidx.lifecycle.ViewModel", h.Supertypes[0].Resolved)
	assert.Equal(t, []string{
		"androidx.lifecycle.ViewModel",
		"kotlinx.coroutines.GlobalScope",
		"kotlinx.coroutines.launch",
	}, h.Imports)
}

func TestFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createAppFixture(t)

	_, stderr, code := run(t, bin, fixture, "check", ".")
	require.Equal(t, 0, code, "stderr: %s", stderr)

	stdout, stderr, code := run(t, bin, fixture, "files", "--format", "json", "--kind", "kotlin")
	require.Equal(t, 0, code, "stderr: %s", stderr)
	var res struct {
		Results []struct {
			Path  string   `json:"path"`
			Types []string `json:"types"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	require.Len(t, res.Results, 1)
	assert.Equal(t, []string{"com.example.app.MainViewModel"}, res.Results[0].Types)

	_, stderr, code = run(t, bin, fixture, "files", "app/missing.kt")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "file not in the index")
}

func TestRules_Text(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)

	stdout, _, code := run(t, bin, t.TempDir(), "rules")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "GlobalScopeUsage")
	assert.Contains(t, stdout, "WrongColorUsage")
}

func TestInvalidFormat(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)

	_, stderr, code := run(t, bin, t.TempDir(), "rules", "--format", "xml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `invalid format "xml"`)
}
