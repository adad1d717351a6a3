//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

package skill

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, root, name, manifest string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644))
	return dir
}

func TestLoadParsesFrontmatter(t *testing.T) {
	root := t.TempDir()
	dir := writeSkill(t, root, "pdf-report", `---
name: pdf-report
description: Produce a PDF report from collected data.
---

# Usage

Run the bundled script.
`)

	meta, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "pdf-report", meta.Name)
	assert.Equal(t, "Produce a PDF report from collected data.", meta.Description)
	assert.Equal(t, dir, meta.Dir)
}

func TestLoadRejectsMissingFrontmatter(t *testing.T) {
	root := t.TempDir()
	dir := writeSkill(t, root, "bare", "# just markdown\n")

	_, err := Load(dir)
	assert.ErrorContains(t, err, "frontmatter")
}

func TestLoadRejectsMissingName(t *testing.T) {
	root := t.TempDir()
	dir := writeSkill(t, root, "anon", "---\ndescription: no name here\n---\n")

	_, err := Load(dir)
	assert.ErrorContains(t, err, "missing a name")
}

func TestLoadAllSkipsNonSkillDirs(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "b-skill", "---\nname: b\ndescription: second\n---\n")
	writeSkill(t, root, "a-skill", "---\nname: a\ndescription: first\n---\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-skill"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644))

	skills, err := LoadAll(root)
	require.NoError(t, err)
	require.Len(t, skills, 2)
	assert.Equal(t, "a", skills[0].Name)
	assert.Equal(t, "b", skills[1].Name)
}
