package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadsHTML(t *testing.T) {
	names := []string{
		"sweepview_1.2.0_Linux_x86_64.tar.gz",
		"sweepview_1.2.0_Darwin_arm64.tar.gz",
		"sweepview_1.2.0_Windows_x86_64.zip",
		"sweepview_1.2.0_SHA256SUMS.tar.gz",
		"notes.txt",
	}
	assert.Equal(t, "1.2.0", versionOf(names))
	assert.Equal(t, "unknown", versionOf([]string{"other_1.0_Linux_x86_64.tar.gz"}))

	out := downloadsHTML(names)
	assert.Contains(t, out, "<h3>1.2.0</h3>")
	assert.Contains(t, out, `<a href="sweepview_1.2.0_Darwin_arm64.tar.gz">`)
	assert.Contains(t, out, "Windows (x86_64)")
	assert.NotContains(t, out, "SHA256")
	assert.Less(t, strings.Index(out, "macOS"), strings.Index(out, "Linux"))
}

func TestReplaceInstallation(t *testing.T) {
	page := []byte(`<h1 id="sweepview">sweepview</h1><h2 id="installation">Installation</h2><p>go install</p><h2 id="usage">Usage</h2>`)
	out := string(replaceInstallation(page, "<table/>"))
	assert.Contains(t, out, "<table/>")
	assert.Contains(t, out, "tar -xzf sweepview_*.tar.gz")
	assert.NotContains(t, out, "go install")
	assert.Contains(t, out, `<h2 id="usage">`)

	plain := []byte(`<h1 id="x">x</h1>`)
	assert.Equal(t, plain, replaceInstallation(plain, "<table/>"))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sweepview_0.1.0_Linux_arm64.tar.gz"), nil, 0o600))

	t.Chdir(dir)
	require.NoError(t, os.WriteFile("README.md", []byte("# sweepview\n\n## Installation\n\nsoon\n\n## Usage\n\nrun it\n"), 0o600))

	require.NoError(t, run(dir))
	page, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "Linux (ARM64)")
	assert.Contains(t, string(page), "Dashboard keys")
	assert.Contains(t, string(page), "<h3")

	require.Error(t, run(filepath.Join(dir, "missing")))
}
