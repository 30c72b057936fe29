package lintchecks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findModuleRoot walks up from cwd to find go.mod, returning the repo root.
func findModuleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find module root")
		}
		dir = parent
	}
}

// newIntegrationEngine creates an Engine backed by a temp DB and the rules
// script on disk rather than the embedded copy.
func newIntegrationEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "integration.db")
	script := filepath.Join(findModuleRoot(t), "scripts", "rules.risor")

	e, err := New(dbPath, append([]Option{WithRulesScript(script)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestIntegration_FrameworkSupertypes(t *testing.T) {
	root := writeProject(t, map[string]string{
		"app/build.gradle": "dependencies {\n" +
			"    implementation 'androidx.lifecycle:lifecycle-runtime-ktx:2.6.2'\n" +
			"    implementation \"androidx.lifecycle:lifecycle-viewmodel-ktx:2.6.2\"\n" +
			"}\n",
		"app/src/main/java/a/Sheet.kt": "package a\n\n" +
			"import com.google.android.material.bottomsheet.BottomSheetDialogFragment\n" +
			"import kotlinx.coroutines.GlobalScope\n\n" +
			"class Sheet : BottomSheetDialogFragment() {\n" +
			"    fun show() { GlobalScope.launch { } }\n" +
			"}\n",
		"app/src/main/java/a/Stats.kt": "package a\n\n" +
			"import android.app.Application\n" +
			"import androidx.lifecycle.AndroidViewModel\n" +
			"import kotlinx.coroutines.GlobalScope\n\n" +
			"class Stats(app: Application) : AndroidViewModel(app) {\n" +
			"    init { GlobalScope.launch { } }\n" +
			"}\n",
		"app/src/main/java/a/Plain.kt": "package a\n\n" +
			"import kotlinx.coroutines.GlobalScope\n\n" +
			"class Plain {\n" +
			"    fun run() { GlobalScope.launch { } }\n" +
			"}\n",
	})
	e := newIntegrationEngine(t)

	res, err := e.Check(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 3)

	byFile := make(map[string]string)
	for _, d := range res.Diagnostics {
		assert.Equal(t, "GlobalScopeUsage", d.RuleID)
		fix := ""
		if d.Fix != nil {
			fix = d.Fix.New
		}
		byFile[filepath.Base(d.Location.Path)] = fix
	}
	assert.Equal(t, map[string]string{
		"Plain.kt": "",
		"Sheet.kt": "lifecycleScope",
		"Stats.kt": "viewModelScope",
	}, byFile)
}

func TestIntegration_PaletteQualifiersAndOrder(t *testing.T) {
	// The palette in values-night is committed after the layout that uses
	// it; the verdict must not depend on that order.
	root := writeProject(t, map[string]string{
		"app/src/main/res/layout/a.xml":            `<View xmlns:android="http://schemas.android.com/apk/res/android" android:background="#ABC"/>`,
		"app/src/main/res/values-night/colors.xml": `<resources><color name="slate">#FFAABBCC</color></resources>`,
		"app/src/main/res/values/styles.xml":       `<resources><style name="T"><item name="colorPrimary">#AABBCC</item></style></resources>`,
		"app/src/main/res/drawable/shape.xml":      `<shape xmlns:android="http://schemas.android.com/apk/res/android"><solid android:color="#80AABBCC"/></shape>`,
	})
	e := newIntegrationEngine(t, WithParallel(false))

	res, err := e.Check(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 3)

	var fixes []string
	for _, d := range res.Diagnostics {
		if d.Fix != nil {
			fixes = append(fixes, d.Location.Path+" "+d.Fix.New)
		}
	}
	assert.Equal(t, []string{
		"app/src/main/res/layout/a.xml @color/slate",
		"app/src/main/res/values/styles.xml @color/slate",
	}, fixes)
	assert.Contains(t, res.Diagnostics[0].Message, "Using raw color #80AABBCC")
}
