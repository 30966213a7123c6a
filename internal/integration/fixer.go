package integration

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// stopGracePeriod bounds how long Stop waits for the fixer process to exit
// after SIGTERM before killing it.
const stopGracePeriod = 5 * time.Second

// FixerRunOptions holds the parameters for one invocation of the external
// code-modification tool.
type FixerRunOptions struct {
	RepoPath    string
	Instruction string
	Files       []string
	// AutoCommit lets the tool commit its own edits. Read-only invocations
	// (reviews) must leave it false.
	AutoCommit bool
	// OnLine receives each transcript line as it arrives. May be nil.
	OnLine func(line string)
}

// FixerResult captures the outcome of a fixer invocation.
type FixerResult struct {
	ExitCode   int
	Transcript string
}

// Fixer defines the interface to the external code-modification CLI.
// One Fixer runs at most one process at a time; Stop terminates it
// cooperatively.
type Fixer interface {
	Run(opts FixerRunOptions) (*FixerResult, error)
	// ReviewRepo asks the tool for a read-only review of the repository
	// structure.
	ReviewRepo(repoPath string, onLine func(string)) (*FixerResult, error)
	// FixIssue asks the tool to resolve the given defect report, letting it
	// commit its own edits.
	FixIssue(repoPath, issueTitle, issueBody string, files []string, onLine func(string)) (*FixerResult, error)
	// ReviewDiff asks the tool for a structured review of a diff. The
	// transcript is expected, but not guaranteed, to contain a JSON object.
	ReviewDiff(repoPath, diff string, onLine func(string)) (*FixerResult, error)
	// Stop terminates the running process with a bounded grace period.
	// Stopping an idle Fixer is a no-op.
	Stop() error
}

type cliFixer struct {
	command string
	model   string

	mu      sync.Mutex
	process *os.Process
	// waitDone is closed by Run once cmd.Wait has returned. Stop watches it
	// instead of calling Wait itself; only one Wait per process is legal.
	waitDone chan struct{}
}

// NewFixer creates a Fixer that shells out to the given CLI command
// (e.g. "aider"). model may be empty to use the tool's default.
func NewFixer(command, model string) Fixer {
	return &cliFixer{command: command, model: model}
}

// buildArgs assembles the CLI argument list for one invocation.
func (f *cliFixer) buildArgs(opts FixerRunOptions) []string {
	args := []string{}
	if f.model != "" {
		args = append(args, "--model", f.model)
	}
	args = append(args, "--yes")
	if !opts.AutoCommit {
		args = append(args, "--no-auto-commits")
	}
	for _, file := range opts.Files {
		args = append(args, "--file", file)
	}
	args = append(args, "--message", opts.Instruction)
	return args
}

func (f *cliFixer) Run(opts FixerRunOptions) (*FixerResult, error) {
	cmd := exec.Command(f.command, f.buildArgs(opts)...)
	cmd.Dir = opts.RepoPath
	cmd.Env = os.Environ()

	// Merge stderr into the same stream so the transcript is one ordered
	// line sequence.
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", f.command, err)
	}

	waitDone := make(chan struct{})
	f.mu.Lock()
	f.process = cmd.Process
	f.waitDone = waitDone
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.process = nil
		f.waitDone = nil
		f.mu.Unlock()
	}()

	var lines []string
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lines = append(lines, line)
		if opts.OnLine != nil {
			opts.OnLine(line)
		}
	}

	result := &FixerResult{Transcript: strings.Join(lines, "\n")}
	waitErr := cmd.Wait()
	close(waitDone)
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			return result, fmt.Errorf("waiting for %s: %w", f.command, waitErr)
		}
	}
	return result, nil
}

func (f *cliFixer) Stop() error {
	f.mu.Lock()
	process := f.process
	waitDone := f.waitDone
	f.mu.Unlock()
	if process == nil {
		return nil
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		// The process may have exited between the snapshot and the signal.
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return fmt.Errorf("terminating fixer process: %w", err)
	}

	select {
	case <-waitDone:
		return nil
	case <-time.After(stopGracePeriod):
		if err := process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("killing fixer process after grace period: %w", err)
		}
		return nil
	}
}

const reviewRepoInstruction = `Review this project's code structure and report:
1. What the project's main functionality is
2. How the code is organized
3. The main modules and files
4. The technology stack
5. What could be improved`

func (f *cliFixer) ReviewRepo(repoPath string, onLine func(string)) (*FixerResult, error) {
	return f.Run(FixerRunOptions{
		RepoPath:    repoPath,
		Instruction: reviewRepoInstruction,
		AutoCommit:  false,
		OnLine:      onLine,
	})
}

func (f *cliFixer) FixIssue(repoPath, issueTitle, issueBody string, files []string, onLine func(string)) (*FixerResult, error) {
	instruction := fmt.Sprintf(`Please fix the following issue:

## Issue title
%s

## Issue description
%s

Please:
1. Analyze the root cause
2. Locate the relevant code
3. Implement the fix
4. Make sure the change does not break existing behavior`, issueTitle, issueBody)

	return f.Run(FixerRunOptions{
		RepoPath:    repoPath,
		Instruction: instruction,
		Files:       files,
		AutoCommit:  true,
		OnLine:      onLine,
	})
}

func (f *cliFixer) ReviewDiff(repoPath, diff string, onLine func(string)) (*FixerResult, error) {
	instruction := fmt.Sprintf(`Review the following code changes like a pull request reviewer.
Respond with a single JSON object of the shape:
{"findings": [{"title": "...", "body": "...", "priority": 0, "confidence": 0.0, "file": "...", "line": 0}],
 "overall_correctness": "...", "overall_confidence": 0.0}
Priority 0 is most severe, 3 least. Do not modify any files.

%s`, diff)

	return f.Run(FixerRunOptions{
		RepoPath:    repoPath,
		Instruction: instruction,
		AutoCommit:  false,
		OnLine:      onLine,
	})
}
