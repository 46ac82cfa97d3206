// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"

	"github.com/spf13/cobra"

	"github.com/fxkit/fxkit/internal/config"
	"github.com/fxkit/fxkit/internal/issue"
	"github.com/fxkit/fxkit/internal/manifest"
	"github.com/fxkit/fxkit/internal/pkgjson"
)

type manifestFlagValues struct {
	stdout bool
}

func newManifestCommand(app *App) *cobra.Command {
	flags := &manifestFlagValues{}
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Write fxmanifest.lua from package.json and the config",
		Long: `Write the resource manifest.

Fields come from package.json (name, author, version, license, repository,
description) followed by fx_version, game and the manifest.metadata entries.
The client and server bundles of the build section are listed before the
configured client_scripts and server_scripts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runManifest(cmd.Context(), app, flags)
		},
	}

	manifestCmd.Flags().BoolVar(&flags.stdout, "stdout", false, "print the manifest instead of writing it")
	return manifestCmd
}

func runManifest(ctx context.Context, app *App, flags *manifestFlagValues) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	outfiles := make(map[string]string, len(cfg.Build.Environments))
	for _, env := range cfg.Build.Environments {
		outfiles[env.Name] = path.Join(cfg.Build.OutDir, env.Name+".js")
	}

	if flags.stdout {
		meta, err := loadPackage(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(app.stdout, manifest.Generate(meta, manifestResource(cfg, outfiles)))
		return nil
	}

	written, err := writeManifest(cfg, outfiles)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓ wrote"), KeyStyle.Render(written))
	return nil
}

// writeManifest regenerates the manifest for the given bundle outputs and
// returns the path written.
func writeManifest(cfg *config.Config, outfiles map[string]string) (string, error) {
	meta, err := loadPackage(cfg)
	if err != nil {
		return "", err
	}
	if _, err := manifest.Write(cfg.Manifest.Path, meta, manifestResource(cfg, outfiles)); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return "", issue.NewErrorContext().
				WithOperation("write manifest").
				WithResource(cfg.Manifest.Path).
				WithIssue(issue.PermissionDeniedId).
				Wrap(err).
				BuildError()
		}
		return "", err
	}
	return cfg.Manifest.Path, nil
}

func loadPackage(cfg *config.Config) (*pkgjson.Package, error) {
	meta, err := pkgjson.Load(cfg.Doc.Package)
	if err != nil {
		return nil, docError(err, cfg.DocOptions())
	}
	return meta, nil
}

// manifestResource lists the client and server bundles ahead of the
// configured scripts. A bundle already listed is not repeated.
func manifestResource(cfg *config.Config, outfiles map[string]string) manifest.Resource {
	return manifest.Resource{
		ClientScripts: withBundle(outfiles["client"], cfg.Manifest.ClientScripts),
		ServerScripts: withBundle(outfiles["server"], cfg.Manifest.ServerScripts),
		Files:         cfg.Manifest.Files,
		Dependencies:  cfg.Manifest.Dependencies,
		Metadata:      cfg.Manifest.Metadata,
	}
}

func withBundle(bundle string, scripts []string) []string {
	if bundle == "" || slices.Contains(scripts, bundle) {
		return scripts
	}
	return append([]string{bundle}, scripts...)
}
