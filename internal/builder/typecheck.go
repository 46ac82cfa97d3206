// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fxkit/fxkit/internal/watch"

	"golang.org/x/sync/errgroup"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// cleanCompileMarker is what tsc prints after a compile without errors.
const cleanCompileMarker = "Found 0 errors."

// ExitError is returned when the type-check command exits non-zero.
type ExitError struct {
	Command string
	Code    int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("type check %q exited with code %d", e.Command, e.Code)
}

// ExitCode returns the exit code of the command.
func (e *ExitError) ExitCode() int { return e.Code }

// typeCheckCommand returns the command to run, with the tsc watch flags
// added to "tsc --build" in watch mode.
func typeCheckCommand(command string, watchMode bool) string {
	if !watchMode {
		return command
	}
	return strings.Replace(command, "tsc --build", "tsc --build --watch --preserveWatchOutput", 1)
}

// runTypeCheck runs the type-check command in an embedded shell. Each line
// it prints is echoed, and a clean compile report triggers a build cycle.
// Outside watch mode a final cycle runs once the command exits zero.
func (b *Builder) runTypeCheck(ctx context.Context) error {
	command := typeCheckCommand(b.cfg.TypeCheck, b.cfg.Watch)

	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "type-check")
	if err != nil {
		return fmt.Errorf("parse type check command: %w", err)
	}

	pr, pw := io.Pipe()
	runner, err := interp.New(
		interp.Dir(b.dir),
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(b.cfg.Stdin, pw, b.cfg.Stderr),
	)
	if err != nil {
		return fmt.Errorf("create shell interpreter: %w", err)
	}

	b.logger.Debug("running type check", "command", command)

	var g errgroup.Group
	g.Go(func() error {
		return b.scanTypeCheckOutput(ctx, pr)
	})

	runErr := runner.Run(ctx, prog)
	pw.Close() //nolint:errcheck // closing the write end only signals EOF
	if err := g.Wait(); err != nil {
		return err
	}

	if runErr != nil {
		var exitStatus interp.ExitStatus
		if errors.As(runErr, &exitStatus) {
			if b.cfg.Watch && ctx.Err() != nil {
				return nil
			}
			return &ExitError{Command: command, Code: int(exitStatus)}
		}
		if ctx.Err() != nil && b.cfg.Watch {
			return nil
		}
		return fmt.Errorf("run type check: %w", runErr)
	}

	if b.cfg.Watch {
		return nil
	}
	return b.Rebuild(ctx)
}

// scanTypeCheckOutput echoes r line by line. A failed cycle is logged and
// scanning continues, so one bad save does not end a watch session.
func (b *Builder) scanTypeCheckOutput(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintln(b.cfg.Stdout, line)

		if strings.Contains(line, cleanCompileMarker) {
			if err := b.Rebuild(ctx); err != nil {
				b.logger.Error("build failed", "err", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		// Keep the pipe drained so the command never blocks on a write.
		_, _ = io.Copy(b.cfg.Stdout, r)
		return fmt.Errorf("read type check output: %w", err)
	}
	return nil
}

// runUnchecked builds once and, in watch mode, rebuilds whenever a source
// file under an environment directory changes.
func (b *Builder) runUnchecked(ctx context.Context) error {
	if err := b.Rebuild(ctx); err != nil {
		if !b.cfg.Watch {
			return err
		}
		b.logger.Error("build failed", "err", err)
	}
	if !b.cfg.Watch {
		return nil
	}

	patterns := make([]string, 0, 2*len(b.cfg.Environments))
	for _, env := range b.cfg.Environments {
		patterns = append(patterns, env.Name+"/**/*.ts", env.Name+"/**/*.tsx")
	}

	w, err := watch.New(watch.Config{
		BaseDir:  b.dir,
		Patterns: patterns,
		Ignore:   []string{b.cfg.OutDir + "/**"},
		OnChange: func(ctx context.Context, changed []string) error {
			b.logger.Debug("sources changed", "files", changed)
			return b.Rebuild(ctx)
		},
		Logger: b.logger,
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
