package generator

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	qerrors "github.com/taskventure/backend/internal/errors"
)

// CLIClient shells out to a local claude CLI, which carries its own login,
// so no API key is stored here.
type CLIClient struct {
	cliPath string
}

func NewCLIClient(cliPath string) *CLIClient {
	return &CLIClient{cliPath: cliPath}
}

func (c *CLIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	if ctx.Err() != nil {
		return nil, qerrors.ErrGeneration("generation cancelled", ctx.Err())
	}

	cmd := exec.CommandContext(ctx,
		c.cliPath,
		"--print",
		"--output-format", "text",
		"--system-prompt", systemPrompt,
		"--max-turns", "1",
	)
	cmd.Stdin = strings.NewReader(userPrompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, qerrors.ErrConfiguration("claude CLI not found at " + c.cliPath)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "claude CLI failed"
		}
		return nil, qerrors.ErrGeneration(msg, err)
	}

	responseText := strings.TrimSpace(stdout.String())
	if responseText == "" {
		return nil, qerrors.ErrGeneration("claude CLI returned an empty response", nil)
	}

	return &LLMResponse{Content: responseText}, nil
}
