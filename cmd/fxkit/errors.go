// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/fxkit/fxkit/internal/builder"
	"github.com/fxkit/fxkit/internal/fsutil"
	"github.com/fxkit/fxkit/internal/fxdoc"
	"github.com/fxkit/fxkit/internal/issue"
)

// docError turns a failed documentation run into an actionable error linked
// to the matching issue. Other errors are returned unchanged.
func docError(err error, opts fxdoc.Options) error {
	var (
		readErr  *fsutil.ReadError
		parseErr *fsutil.ParseError
	)
	switch {
	case errors.As(err, &readErr) && errors.Is(readErr, fs.ErrNotExist) && readErr.Path == opts.TSConfig:
		return issue.NewErrorContext().
			WithOperation("read compiler options").
			WithResource(readErr.Path).
			WithIssue(issue.TSConfigNotFoundId).
			WithSuggestion("Pass tsconfig=<path> or set doc.tsconfig").
			Wrap(err).
			BuildError()
	case errors.As(err, &readErr) && errors.Is(readErr, fs.ErrNotExist) && readErr.Path == opts.Package:
		return issue.NewErrorContext().
			WithOperation("read package metadata").
			WithResource(readErr.Path).
			WithIssue(issue.PackageJSONNotFoundId).
			WithSuggestion("Set doc.package to the resource's package.json").
			Wrap(err).
			BuildError()
	case errors.As(err, &parseErr):
		return issue.NewErrorContext().
			WithOperation("parse JSON").
			WithResource(parseErr.Path).
			WithIssue(issue.JSONParseErrorId).
			Wrap(err).
			BuildError()
	case errors.Is(err, fs.ErrPermission):
		return issue.NewErrorContext().
			WithOperation("write documentation").
			WithResource(opts.Out).
			WithIssue(issue.PermissionDeniedId).
			Wrap(err).
			BuildError()
	}
	return err
}

// buildError maps builder failures. A failed type check keeps the exit code
// of the command.
func buildError(err error) error {
	var (
		exitErr   *builder.ExitError
		bundleErr *builder.BuildError
	)
	switch {
	case errors.As(err, &exitErr):
		return &ExitError{
			Code: exitErr.ExitCode(),
			Err: issue.NewErrorContext().
				WithOperation("type check").
				WithResource(exitErr.Command).
				WithIssue(issue.TypeCheckFailedId).
				WithSuggestion("Fix the reported type errors and run the build again").
				Wrap(err).
				BuildError(),
		}
	case errors.As(err, &bundleErr):
		return issue.NewErrorContext().
			WithOperation("bundle").
			WithResource(bundleErr.Environment).
			WithIssue(issue.BuildFailedId).
			Wrap(err).
			BuildError()
	case errors.Is(err, fs.ErrPermission):
		return issue.NewErrorContext().
			WithOperation("write build output").
			WithIssue(issue.PermissionDeniedId).
			Wrap(err).
			BuildError()
	}
	return err
}

// renderError prints err for the user. Actionable errors print their
// suggestions, preceded by the linked issue page.
func renderError(w io.Writer, app *App, err error) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		fmt.Fprintln(w, ErrorStyle.Render("Error:"), err.Error())
		return
	}

	if entry := issue.Get(ae.Issue); entry != nil {
		if rendered, renderErr := entry.Render(app.glamourStyle()); renderErr == nil {
			fmt.Fprint(w, rendered)
		} else {
			app.logger("fxkit").Warn("failed to render issue page", "issue", ae.Issue, "error", renderErr)
		}
	}
	fmt.Fprintln(w, ErrorStyle.Render("Error:"), ae.Format(app.verbose()))
}
