package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogTOML = `[versions]
lifecycle = "2.6.2"

[libraries]
androidx-lifecycle-viewmodel-ktx = { group = "androidx.lifecycle", name = "lifecycle-viewmodel-ktx", version.ref = "lifecycle" }
androidx-lifecycle-runtime-ktx = { module = "androidx.lifecycle:lifecycle-runtime-ktx", version = "2.6.2" }
okhttp = "com.squareup.okhttp3:okhttp:4.12.0"
junit = "junit:junit:4.13.2"

[bundles]
lifecycle = ["androidx-lifecycle-viewmodel-ktx", "androidx-lifecycle-runtime-ktx"]
`

const buildKts = `plugins {
    id("com.android.application")
}

dependencies {
    implementation("androidx.core:core-ktx:1.12.0")
    implementation(libs.androidx.lifecycle.viewmodel.ktx)
    api(platform("androidx.compose:compose-bom:2024.01.00"))
    kapt(group = "com.google.dagger", name = "hilt-compiler", version = "2.50")
    testImplementation("androidx.lifecycle:lifecycle-runtime-ktx:2.6.2")
    androidTestImplementation(libs.junit)
    implementation(project(":core"))
}
`

const buildGroovy = `dependencies {
    implementation 'androidx.appcompat:appcompat:1.6.1'
    implementation "androidx.lifecycle:lifecycle-runtime-ktx:$lifecycle_version"
    implementation libs.okhttp
    debugImplementation group: 'com.squareup.leakcanary', name: 'leakcanary-android', version: '2.12'
    testImplementation 'junit:junit:4.13.2'
    classpath "com.android.tools.build:gradle:8.2.0"
}
`

func TestParseCoordinate(t *testing.T) {
	t.Parallel()

	d, ok := ParseCoordinate("androidx.lifecycle:lifecycle-runtime-ktx:2.6.2")
	require.True(t, ok)
	assert.Equal(t, "androidx.lifecycle:lifecycle-runtime-ktx", d.ID())
	assert.Equal(t, "2.6.2", d.Version)

	d, ok = ParseCoordinate("a:b")
	require.True(t, ok)
	assert.Empty(t, d.Version)

	for _, bad := range []string{"", "a", ":b", "a:"} {
		_, ok := ParseCoordinate(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseCatalog(t *testing.T) {
	t.Parallel()

	c, err := ParseCatalog([]byte(catalogTOML))
	require.NoError(t, err)

	deps, ok := c.Resolve("libs.androidx.lifecycle.viewmodel.ktx")
	require.True(t, ok)
	require.Len(t, deps, 1)
	assert.Equal(t, "androidx.lifecycle:lifecycle-viewmodel-ktx", deps[0].ID())
	assert.Equal(t, "2.6.2", deps[0].Version)

	deps, ok = c.Resolve("libs.okhttp")
	require.True(t, ok)
	assert.Equal(t, "4.12.0", deps[0].Version)

	deps, ok = c.Resolve("libs.bundles.lifecycle")
	require.True(t, ok)
	assert.Len(t, deps, 2)

	_, ok = c.Resolve("libs.missing")
	assert.False(t, ok)
	_, ok = c.Resolve("other.okhttp")
	assert.False(t, ok)

	var nilCatalog *Catalog
	_, ok = nilCatalog.Resolve("libs.okhttp")
	assert.False(t, ok)
}

func TestParseCatalog_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", "[libraries\n", "decoding version catalog"},
		{"bad coordinate", "[libraries]\nx = \"nogroup\"\n", `library "x"`},
		{"missing name", "[libraries]\nx = { group = \"a\" }\n", "missing module"},
		{"unknown bundle member", "[libraries]\nx = \"a:b\"\n[bundles]\nb = [\"y\"]\n", `unknown library "y"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAccessor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "androidx.lifecycle.runtime", Accessor("androidx-lifecycle_runtime"))
	assert.Equal(t, "okhttp", Accessor("okhttp"))
}

func ids(deps []Dependency) []string {
	out := make([]string, len(deps))
	for i, d := range deps {
		out[i] = d.Configuration + " " + d.ID()
	}
	return out
}

func TestParseKotlinScript(t *testing.T) {
	t.Parallel()

	c, err := ParseCatalog([]byte(catalogTOML))
	require.NoError(t, err)

	deps, err := ParseKotlinScript(context.Background(), "app/build.gradle.kts", []byte(buildKts), c)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"implementation androidx.core:core-ktx",
		"implementation androidx.lifecycle:lifecycle-viewmodel-ktx",
		"api androidx.compose:compose-bom",
		"kapt com.google.dagger:hilt-compiler",
	}, ids(deps))
	assert.Equal(t, "2.50", deps[3].Version)
	for _, d := range deps {
		assert.Equal(t, "app/build.gradle.kts", d.Path)
	}
}

func TestParseGroovy(t *testing.T) {
	t.Parallel()

	c, err := ParseCatalog([]byte(catalogTOML))
	require.NoError(t, err)

	deps := ParseGroovy("app/build.gradle", []byte(buildGroovy), c)
	assert.ElementsMatch(t, []string{
		"implementation androidx.appcompat:appcompat",
		"implementation androidx.lifecycle:lifecycle-runtime-ktx",
		"implementation com.squareup.okhttp3:okhttp",
		"debugImplementation com.squareup.leakcanary:leakcanary-android",
	}, ids(deps))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	write := func(rel, content string) {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	write("gradle/libs.versions.toml", catalogTOML)
	write("app/build.gradle.kts", buildKts)
	write("legacy/build.gradle", buildGroovy)

	// Build file listed before the catalog still resolves accessors.
	deps, err := Load(context.Background(), root, []string{
		"app/build.gradle.kts", "legacy/build.gradle", "gradle/libs.versions.toml",
	})
	require.NoError(t, err)

	assert.True(t, deps.Has("androidx.lifecycle:lifecycle-viewmodel-ktx"))
	assert.True(t, deps.Has("androidx.lifecycle:lifecycle-runtime-ktx"), "declared in legacy/build.gradle")
	assert.True(t, deps.Has("com.squareup.okhttp3:okhttp"))
	assert.False(t, deps.Has("junit:junit"), "test configurations are not capabilities")
	assert.Equal(t, 8, deps.Len())

	list := deps.List()
	require.NotEmpty(t, list)
	assert.Equal(t, "androidx.appcompat:appcompat", list[0].ID())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(context.Background(), t.TempDir(), []string{"build.gradle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest: reading build.gradle")
}

func TestIsManifest(t *testing.T) {
	t.Parallel()

	assert.True(t, IsManifest("app/build.gradle.kts"))
	assert.True(t, IsManifest("build.gradle"))
	assert.True(t, IsManifest("gradle/libs.versions.toml"))
	assert.False(t, IsManifest("settings.gradle.kts"))
}
