package executors

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrEmptyCommand = errors.New("empty command")

// Dispatcher runs a single opaque remediation command against one backend.
// The context deadline bounds the whole invocation.
type Dispatcher interface {
	Dispatch(ctx context.Context, command string) (string, error)
}

// commandDispatcher shells out to a CLI binary. The first token of every
// command must match the allowed binary, so a generated solution cannot smuggle
// in an arbitrary program. Commands are split into argv directly and never pass
// through a shell.
type commandDispatcher struct {
	binary string
}

func (d *commandDispatcher) Dispatch(ctx context.Context, command string) (string, error) {
	argv, err := splitCommand(command)
	if err != nil {
		return "", err
	}

	if argv[0] != d.binary {
		return "", fmt.Errorf("command must start with %q, got %q", d.binary, argv[0])
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	output, err := cmd.CombinedOutput()

	if err != nil {
		return string(output), err
	}

	return string(output), nil
}

// splitCommand tokenizes a command line, honoring single and double quotes so
// JSON patch payloads survive intact.
func splitCommand(command string) ([]string, error) {
	var argv []string
	var current strings.Builder
	var quote rune
	inToken := false

	for _, r := range command {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n':
			if inToken {
				argv = append(argv, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command")
	}

	if inToken {
		argv = append(argv, current.String())
	}

	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}

	return argv, nil
}
