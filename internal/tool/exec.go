package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
)

// killGrace bounds how long Run waits for output pipes after the primitive
// has been killed.
const killGrace = 2 * time.Second

// ExecTool runs an external crypto executable.
type ExecTool struct {
	path string
}

var _ smsg.Tool = (*ExecTool)(nil)

// NewExecTool creates an ExecTool for the executable at path. A bare name is
// resolved through PATH when Run is called.
func NewExecTool(path string) *ExecTool {
	return &ExecTool{path: path}
}

// Run starts the executable, waits for it to exit and captures its combined
// output. If ctx ends first the process is killed and reaped before Run
// returns.
func (t *ExecTool) Run(ctx context.Context, args ...string) (smsg.ToolResult, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, t.path, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = killGrace

	err := cmd.Run()
	res := smsg.ToolResult{Output: out.Bytes()}

	if ctx.Err() != nil {
		if cmd.ProcessState != nil {
			res.ExitCode = cmd.ProcessState.ExitCode()
		}
		return res, ctx.Err()
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	default:
		return res, fmt.Errorf("%w: %s: %v", smsg.ErrToolUnavailable, t.path, err)
	}
}
