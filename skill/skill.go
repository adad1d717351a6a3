//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

// Package skill loads reusable instruction bundles. A skill is a directory
// containing a SKILL.md file whose yaml frontmatter declares a name and a
// description; the rest of the directory is supporting material uploaded into
// the execution environment at session setup.
package skill

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the well-known file a skill directory must contain.
const ManifestFile = "SKILL.md"

const frontmatterDelimiter = "---"

// Metadata describes one loaded skill.
type Metadata struct {
	// Name identifies the skill to the model.
	Name string `yaml:"name"`
	// Description tells the model when the skill applies.
	Description string `yaml:"description"`
	// Dir is the skill directory on the loading side.
	Dir string `yaml:"-"`
}

// Load reads and parses the manifest of a single skill directory.
func Load(dir string) (*Metadata, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read skill manifest in %s: %w", dir, err)
	}
	front, err := extractFrontmatter(raw)
	if err != nil {
		return nil, fmt.Errorf("skill %s: %w", dir, err)
	}

	var meta Metadata
	if err := yaml.Unmarshal(front, &meta); err != nil {
		return nil, fmt.Errorf("skill %s: parse frontmatter: %w", dir, err)
	}
	if meta.Name == "" {
		return nil, fmt.Errorf("skill %s: frontmatter is missing a name", dir)
	}
	meta.Dir = dir
	return &meta, nil
}

// LoadAll loads every immediate subdirectory of root that contains a
// manifest, in lexical order. Subdirectories without a manifest are skipped.
func LoadAll(root string) ([]*Metadata, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read skills directory %s: %w", root, err)
	}

	var skills []*Metadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err != nil {
			continue
		}
		meta, err := Load(dir)
		if err != nil {
			return nil, err
		}
		skills = append(skills, meta)
	}
	return skills, nil
}

func extractFrontmatter(raw []byte) ([]byte, error) {
	content := strings.TrimLeft(string(bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))), "\n")
	if !strings.HasPrefix(content, frontmatterDelimiter+"\n") {
		return nil, fmt.Errorf("manifest has no yaml frontmatter")
	}
	rest := content[len(frontmatterDelimiter)+1:]
	end := strings.Index(rest, "\n"+frontmatterDelimiter)
	if end < 0 {
		return nil, fmt.Errorf("manifest frontmatter is not terminated")
	}
	return []byte(rest[:end]), nil
}
