//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

package agent

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/agentloop/agentloop-go/execenv"
	"github.com/agentloop/agentloop-go/log"
	"github.com/agentloop/agentloop-go/model"
	"github.com/agentloop/agentloop-go/session"
	"github.com/agentloop/agentloop-go/skill"
	"github.com/agentloop/agentloop-go/tool"
)

// setupSession establishes the session in a fixed order: the execution
// environment provider first, then input-file upload, skill loading, the
// remaining tool providers, and the finish tool last. Every acquired resource
// is pushed onto the session disposal stack.
func (a *Agent) setupSession(ctx context.Context, r *run) error {
	state := r.state

	if a.envProvider != nil {
		if err := a.envProvider.Initialize(ctx); err != nil {
			return fmt.Errorf("initialize provider %s: %w", a.envProvider.Name(), err)
		}
		state.Defer(a.envProvider.Name(), a.envProvider.Close)
		state.SetEnvironment(a.envProvider.Environment())
		if err := r.register(ctx, a.envProvider); err != nil {
			return err
		}
		// Pushed after the provider so output export runs before the
		// environment tears down.
		state.Defer("output_export", r.exportOutputs)
	}

	if len(a.inputFiles) > 0 {
		if err := a.uploadInputFiles(ctx, state); err != nil {
			return err
		}
	}

	if len(r.cfg.files) > 0 {
		env := state.Environment()
		if env == nil {
			return fmt.Errorf("agent %s: transferred files require an execution environment provider", a.name)
		}
		for _, f := range r.cfg.files {
			if err := env.SaveFile(ctx, f.Path, f.Data); err != nil {
				return fmt.Errorf("transfer file %s: %w", f.Path, err)
			}
			state.AddUploadedFile(f.Path)
		}
	}

	if a.skillsDir != "" {
		if err := a.loadSkills(ctx, state); err != nil {
			return err
		}
	}

	for _, set := range a.sets {
		if set == tool.Set(a.envProvider) {
			continue
		}
		if err := set.Initialize(ctx); err != nil {
			return fmt.Errorf("initialize provider %s: %w", set.Name(), err)
		}
		state.Defer(set.Name(), set.Close)
		if err := r.register(ctx, set); err != nil {
			return err
		}
	}

	finish := &finishTool{spec: a.finish}
	r.registry.Register(finish)
	v, err := a.finish.Schema.Compile(a.finish.Name)
	if err != nil {
		return err
	}
	r.validators[a.finish.Name] = v

	r.active = []model.Message{
		model.NewSystemMessage(a.systemPrompt(state)),
	}
	return nil
}

// register pulls the set's tools into the run registry and compiles their
// argument validators. Tools(ctx) is called exactly once per session.
func (r *run) register(ctx context.Context, set tool.Set) error {
	for _, t := range set.Tools(ctx) {
		decl := t.Declaration()
		v, err := decl.InputSchema.Compile(decl.Name)
		if err != nil {
			return fmt.Errorf("provider %s: %w", set.Name(), err)
		}
		r.registry.Register(t)
		r.validators[decl.Name] = v
	}
	return nil
}

// uploadInputFiles resolves the configured glob patterns, de-duplicates the
// matches order-preserving, and copies each file into the environment work
// directory under its base name.
func (a *Agent) uploadInputFiles(ctx context.Context, state *session.State) error {
	env := state.Environment()
	if env == nil {
		return fmt.Errorf("agent %s: input files configured but no execution environment provider", a.name)
	}

	seen := make(map[string]struct{})
	var paths []string
	for _, pattern := range a.inputFiles {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return fmt.Errorf("input file pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			log.Warnf("input file pattern %q matched nothing", pattern)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			paths = append(paths, m)
		}
	}

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read input file %s: %w", p, err)
		}
		dest := filepath.Base(p)
		if err := env.SaveFile(ctx, dest, data); err != nil {
			return fmt.Errorf("upload input file %s: %w", p, err)
		}
		state.AddUploadedFile(dest)
	}
	return nil
}

// loadSkills parses every skill under the configured directory, records the
// metadata on the session, and mirrors the skill directories into the
// environment under skills/<name>/.
func (a *Agent) loadSkills(ctx context.Context, state *session.State) error {
	skills, err := skill.LoadAll(a.skillsDir)
	if err != nil {
		return err
	}
	env := state.Environment()
	for _, meta := range skills {
		state.AddSkill(meta)
		if env == nil {
			continue
		}
		if err := uploadDir(ctx, env, meta.Dir, filepath.ToSlash(filepath.Join("skills", meta.Name))); err != nil {
			return fmt.Errorf("upload skill %s: %w", meta.Name, err)
		}
	}
	return nil
}

func uploadDir(ctx context.Context, env execenv.Environment, src, dest string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return env.SaveFile(ctx, dest+"/"+filepath.ToSlash(rel), data)
	})
}

// systemPrompt assembles the system message from the instruction, the
// environment, uploaded files and loaded skills.
func (a *Agent) systemPrompt(state *session.State) string {
	var b strings.Builder
	if a.instruction != "" {
		b.WriteString(a.instruction)
	} else {
		fmt.Fprintf(&b, "You are %s, an autonomous agent. Use the available tools to complete the task.", a.name)
	}

	if env := state.Environment(); env != nil {
		fmt.Fprintf(&b, "\n\nYou have an execution environment with working directory %s.", env.WorkDir())
	}
	if files := state.UploadedFiles(); len(files) > 0 {
		b.WriteString("\n\nInput files available in the working directory:")
		for _, f := range files {
			fmt.Fprintf(&b, "\n- %s", f)
		}
	}
	if skills := state.Skills(); len(skills) > 0 {
		b.WriteString("\n\nAvailable skills, each documented in skills/<name>/SKILL.md:")
		for _, s := range skills {
			fmt.Fprintf(&b, "\n- %s: %s", s.Name, s.Description)
		}
	}
	fmt.Fprintf(&b, "\n\nWhen the task is complete, call the %s tool.", a.finish.Name)
	return b.String()
}
