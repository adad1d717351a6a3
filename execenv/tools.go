//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

package execenv

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentloop/agentloop-go/metadata"
	"github.com/agentloop/agentloop-go/tool"
	"github.com/agentloop/agentloop-go/tool/function"
)

type runCommandArgs struct {
	Command string `json:"command" description:"Shell command to execute in the session work directory"`
}

type saveFileArgs struct {
	Path    string `json:"path" description:"Destination path, relative to the work directory"`
	Content string `json:"content" description:"File content to write"`
}

// EnvironmentTools builds the run_command and save_file tools bound to env.
// Every Provider implementation exposes these two under the same names so
// prompts stay portable across environments.
func EnvironmentTools(env Environment) []tool.CallableTool {
	run := function.New(func(ctx context.Context, in runCommandArgs) (*tool.Result, error) {
		out, err := env.RunCommand(ctx, in.Command)
		if err != nil {
			return nil, err
		}
		content := out.Stdout
		if out.Stderr != "" {
			content += "\n" + out.Stderr
		}
		if out.ExitCode != 0 {
			content = fmt.Sprintf("%s\n(exit code %d)", content, out.ExitCode)
		}
		return &tool.Result{
			Content:  strings.TrimSpace(content),
			Metadata: metadata.ToolUseCount(1),
		}, nil
	}, function.WithName("run_command"),
		function.WithDescription("Execute a shell command in the session work directory."))

	save := function.New(func(ctx context.Context, in saveFileArgs) (*tool.Result, error) {
		if err := env.SaveFile(ctx, in.Path, []byte(in.Content)); err != nil {
			return nil, err
		}
		return &tool.Result{
			Content:  fmt.Sprintf("saved %s (%d bytes)", in.Path, len(in.Content)),
			Metadata: metadata.ByteCount(len(in.Content)),
		}, nil
	}, function.WithName("save_file"),
		function.WithDescription("Write a file into the session work directory."))

	return []tool.CallableTool{run, save}
}
