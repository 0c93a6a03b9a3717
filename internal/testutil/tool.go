package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aymenrakics/Secure-Messaging-System/internal/smsg"
	"github.com/aymenrakics/Secure-Messaging-System/internal/tool"
)

// StubTool wraps the deterministic test primitive and lets tests force
// failures per mode. Safe for concurrent use.
type StubTool struct {
	mu          sync.Mutex
	delegate    smsg.Tool
	exitCodes   map[string]int
	blocked     map[string]bool
	skipped     map[string]bool
	partial     map[string]bool
	unavailable bool
	calls       [][]string

	// OnRun, if set, is called with the arguments before each invocation
	// is handled.
	OnRun func(args []string)
}

var _ smsg.Tool = (*StubTool)(nil)

// NewStubTool creates a StubTool that behaves like tool.TestTool until told
// otherwise.
func NewStubTool() *StubTool {
	return &StubTool{
		delegate:  tool.NewTestTool(),
		exitCodes: make(map[string]int),
		blocked:   make(map[string]bool),
		skipped:   make(map[string]bool),
		partial:   make(map[string]bool),
	}
}

// FailMode makes every call in mode exit with code without doing anything.
func (s *StubTool) FailMode(mode string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exitCodes[mode] = code
}

// BlockMode makes every call in mode hang until its context ends.
func (s *StubTool) BlockMode(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked[mode] = true
}

// WriteOutputsFirst makes every call in mode write its output artifacts
// before a forced failure or block from FailMode or BlockMode takes effect.
func (s *StubTool) WriteOutputsFirst(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partial[mode] = true
}

// SkipMode makes every call in mode exit 0 without writing any artifact.
func (s *StubTool) SkipMode(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped[mode] = true
}

// SetUnavailable makes every call fail as if the executable were missing.
func (s *StubTool) SetUnavailable(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = v
}

// Calls returns a copy of the arguments of every invocation so far.
func (s *StubTool) Calls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.calls))
	for i, c := range s.calls {
		out[i] = append([]string(nil), c...)
	}
	return out
}

// CallCount returns how many invocations used mode.
func (s *StubTool) CallCount(mode string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if len(c) > 0 && c[0] == mode {
			n++
		}
	}
	return n
}

func (s *StubTool) Run(ctx context.Context, args ...string) (smsg.ToolResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]string(nil), args...))
	var mode string
	if len(args) > 0 {
		mode = args[0]
	}
	unavailable := s.unavailable
	blocked := s.blocked[mode]
	skipped := s.skipped[mode]
	code, forced := s.exitCodes[mode]
	partial := s.partial[mode]
	hook := s.OnRun
	s.mu.Unlock()

	if hook != nil {
		hook(args)
	}
	if partial && !unavailable {
		if err := writeOutputs(mode, args); err != nil {
			return smsg.ToolResult{ExitCode: 1, Output: []byte(err.Error())}, nil
		}
	}

	switch {
	case unavailable:
		return smsg.ToolResult{}, fmt.Errorf("%w: stub tool disabled", smsg.ErrToolUnavailable)
	case blocked:
		<-ctx.Done()
		return smsg.ToolResult{}, ctx.Err()
	case forced:
		return smsg.ToolResult{ExitCode: code, Output: []byte("forced failure\n")}, nil
	case skipped:
		return smsg.ToolResult{}, nil
	}
	return s.delegate.Run(ctx, args...)
}

// writeOutputs fills the paths the primitive writes in mode with junk.
func writeOutputs(mode string, args []string) error {
	var outputs []string
	switch {
	case mode == smsg.ModeGenerate && len(args) == 3:
		outputs = args[1:]
	case (mode == smsg.ModeEncrypt || mode == smsg.ModeDecrypt) && len(args) == 4:
		outputs = args[3:]
	}
	for _, p := range outputs {
		if err := os.WriteFile(p, []byte("partial output\n"), 0600); err != nil {
			return err
		}
	}
	return nil
}
