package runtime

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Language detection tests ---

func TestLanguageForFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"MainViewModel.kt", "kotlin", true},
		{"build.gradle.kts", "kotlin", true},
		{"res/values/colors.xml", "xml", true},
		{"Upper.KT", "kotlin", true},
		{"build.gradle", "", false},
		{"Main.java", "", false},
		{"README", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := LanguageForFile(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParserForLanguage(t *testing.T) {
	t.Parallel()

	lang, ok := ParserForLanguage("kotlin")
	require.True(t, ok)
	assert.NotNil(t, lang)

	_, ok = ParserForLanguage("xml")
	assert.False(t, ok, "xml has no tree-sitter grammar")
}

func TestParse(t *testing.T) {
	t.Parallel()

	tree, err := Parse(context.Background(), "kotlin", []byte("class A : B()\n"))
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "source_file", root.Type())
	assert.False(t, root.HasError())

	_, err = Parse(context.Background(), "cobol", nil)
	assert.ErrorContains(t, err, "unsupported language")
}

// --- Script evaluation tests ---

func TestRunSource(t *testing.T) {
	t.Parallel()

	rt := NewRuntime("")
	result, err := rt.RunSource(context.Background(), `
kinds := []
kinds.append({"name": "a"})
kinds.append({"name": "b"})
len(kinds)
`, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Interface())
}

func TestRunSource_ExtraGlobals(t *testing.T) {
	t.Parallel()

	rt := NewRuntime("")
	result, err := rt.RunSource(context.Background(), `prefix + "Scope"`, map[string]any{
		"prefix": "lifecycle",
	})
	require.NoError(t, err)
	assert.Equal(t, "lifecycleScope", result.Interface())
}

func TestRunSource_SyntaxError(t *testing.T) {
	t.Parallel()

	rt := NewRuntime("")
	_, err := rt.RunSource(context.Background(), `x := {`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime: script <inline>")
}

func TestRunSource_LogGoesToLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rt := NewRuntime("", WithRuntimeLogger(logger))

	_, err := rt.RunSource(context.Background(), `log.Warn("custom kind registered")`, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "custom kind registered")
	assert.Contains(t, buf.String(), "source=script")
}

func TestRunScript_FromDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer.risor"), []byte(`40 + 2`), 0o644))

	rt := NewRuntime(dir)
	result, err := rt.RunScript(context.Background(), "answer.risor", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.Interface())
}

func TestRunScript_MissingFile(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(t.TempDir())
	_, err := rt.RunScript(context.Background(), "missing.risor", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime: loading script")
}

func TestLoadScript_FromFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"rules.risor": &fstest.MapFile{Data: []byte(`"from fs"`)},
	}
	rt := NewRuntime("", WithRuntimeFS(fsys))

	src, err := rt.LoadScript("/rules.risor")
	require.NoError(t, err)
	assert.Equal(t, `"from fs"`, src)

	_, err = rt.LoadScript("other.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

func TestRunScript_ImportFromFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		// FSImporter resolves "kinds" by trying name + ".risor".
		"kinds.risor": &fstest.MapFile{Data: []byte(`
func count() {
	return 2
}
`)},
		"main.risor": &fstest.MapFile{Data: []byte("import kinds\nkinds.count()")},
	}
	rt := NewRuntime("", WithRuntimeFS(fsys))

	result, err := rt.RunScript(context.Background(), "main.risor", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Interface())
}
