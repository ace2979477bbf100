// Package install runs the package manager and git inside a generated
// project.
package install

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/tstack-labs/tstack/internal/stack"
)

// Runner executes external tools. Stdout and Stderr default to os.Stdout and
// os.Stderr; LookPath defaults to exec.LookPath and is replaceable in tests.
type Runner struct {
	Stdout   io.Writer
	Stderr   io.Writer
	LookPath func(string) (string, error)
	// Command builds the process; defaults to exec.CommandContext.
	Command func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// Warning is a non-fatal condition, such as a missing tool, that the caller
// reports instead of failing.
type Warning string

// Dependencies runs "<pm> install" in dir. When the package manager is not on
// PATH a warning is returned instead of an error.
func (r *Runner) Dependencies(ctx context.Context, dir string, pm stack.PackageManager) (Warning, error) {
	if pm == "" {
		pm = stack.PackageManagerNPM
	}
	bin, err := r.lookPath(string(pm))
	if err != nil {
		return Warning(fmt.Sprintf("%s not found, skipping dependency installation (run `%s install` later)", pm, pm)), nil
	}
	if err := r.run(ctx, dir, bin, "install"); err != nil {
		return "", fmt.Errorf("%s install in %s: %w", pm, dir, err)
	}
	return "", nil
}

// Git initializes a repository in dir and records an initial commit.
func (r *Runner) Git(ctx context.Context, dir string) (Warning, error) {
	bin, err := r.lookPath("git")
	if err != nil {
		return "git not found, skipping repository initialization", nil
	}
	steps := [][]string{
		{"init"},
		{"add", "-A"},
		{"commit", "-m", "initial commit"},
	}
	for _, args := range steps {
		if err := r.run(ctx, dir, bin, args...); err != nil {
			return "", fmt.Errorf("git %s: %w", args[0], err)
		}
	}
	return "", nil
}

func (r *Runner) lookPath(name string) (string, error) {
	if r.LookPath != nil {
		return r.LookPath(name)
	}
	return exec.LookPath(name)
}

func (r *Runner) run(ctx context.Context, dir, bin string, args ...string) error {
	build := r.Command
	if build == nil {
		build = exec.CommandContext
	}
	cmd := build(ctx, bin, args...)
	cmd.Dir = dir

	stdout := r.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := r.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	var errBuf bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, &errBuf)

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(errBuf.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, lastLine(msg))
		}
		return err
	}
	return nil
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
