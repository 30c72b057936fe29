package fix

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmv-2143/lintchecks/internal/diag"
)

// rep builds a replacement of the first occurrence of old at or after from.
func rep(t *testing.T, path, src, old, new string, from int) diag.TextReplacement {
	t.Helper()
	i := strings.Index(src[from:], old)
	require.GreaterOrEqual(t, i, 0, "%q not found", old)
	start := from + i
	return diag.TextReplacement{
		Name:  "Replace with " + new,
		Range: diag.Location{Path: path, StartByte: start, EndByte: start + len(old)},
		Old:   old,
		New:   new,
	}
}

func TestRewrite(t *testing.T) {
	t.Parallel()

	src := `<View android:background="#FF018786" android:textColor="#fff"/>`
	tests := []struct {
		name    string
		reps    func() []diag.TextReplacement
		want    string
		applied int
		skipped int
	}{
		{
			name: "two replacements any order",
			reps: func() []diag.TextReplacement {
				return []diag.TextReplacement{
					rep(t, "a.xml", src, "#FF018786", "@color/teal_700", 0),
					rep(t, "a.xml", src, "#fff", "@color/white", 0),
				}
			},
			want:    `<View android:background="@color/teal_700" android:textColor="@color/white"/>`,
			applied: 2,
		},
		{
			name: "stale old text",
			reps: func() []diag.TextReplacement {
				r := rep(t, "a.xml", src, "#fff", "@color/white", 0)
				r.Old = "#000"
				return []diag.TextReplacement{r}
			},
			want:    src,
			skipped: 1,
		},
		{
			name: "overlap keeps the later range",
			reps: func() []diag.TextReplacement {
				a := rep(t, "a.xml", src, "#FF018786", "@color/teal_700", 0)
				b := a
				b.Range.StartByte += 1
				b.Old = "FF018786"
				b.New = "00000000"
				return []diag.TextReplacement{a, b}
			},
			want:    strings.Replace(src, "FF018786", "00000000", 1),
			applied: 1,
			skipped: 1,
		},
		{
			name: "out of range",
			reps: func() []diag.TextReplacement {
				return []diag.TextReplacement{{Range: diag.Location{StartByte: 10, EndByte: 1000}, Old: "x"}}
			},
			want:    src,
			skipped: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, applied, skipped := Rewrite([]byte(src), tt.reps())
			assert.Equal(t, tt.want, string(out))
			assert.Equal(t, tt.applied, applied)
			assert.Equal(t, tt.skipped, skipped)
		})
	}
}

func TestRewrite_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	src := []byte("GlobalScope.launch {}")
	_, applied, _ := Rewrite(src, []diag.TextReplacement{{
		Range: diag.Location{StartByte: 0, EndByte: 11},
		Old:   "GlobalScope",
		New:   "viewModelScope",
	}})
	assert.Equal(t, 1, applied)
	assert.Equal(t, "GlobalScope.launch {}", string(src))
}

func TestApply(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	kt := "class A : ViewModel() {\n    fun f() { GlobalScope.launch {} }\n}\n"
	xml := `<View android:background="#FF018786"/>`
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "A.kt"), []byte(kt), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "layout.xml"), []byte(xml), 0o600))

	ktFix := rep(t, "src/A.kt", kt, "GlobalScope", "viewModelScope", 0)
	xmlFix := rep(t, "layout.xml", xml, "#FF018786", "@color/teal_700", 0)
	diags := []diag.Diagnostic{
		{RuleID: "GlobalScopeUsage", Fix: &ktFix},
		{RuleID: "WrongColorUsage"},
		{RuleID: "WrongColorUsage", Fix: &xmlFix},
	}

	res, err := Apply(root, diags, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, []string{"layout.xml", "src/A.kt"}, res.Files)

	got, err := os.ReadFile(filepath.Join(root, "src", "A.kt"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "viewModelScope.launch")

	info, err := os.Stat(filepath.Join(root, "layout.xml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Applying again finds the old text gone.
	res, err = Apply(root, diags, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, 2, res.Skipped)
	assert.Empty(t, res.Files)
}

func TestApply_MissingFile(t *testing.T) {
	t.Parallel()

	fix := diag.TextReplacement{Range: diag.Location{Path: "gone.kt"}}
	_, err := Apply(t.TempDir(), []diag.Diagnostic{{Fix: &fix}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fix: reading gone.kt")
}
