// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/fxkit/fxkit/internal/cueutil"
	"github.com/fxkit/fxkit/internal/issue"
)

const (
	// AppName is the application name and environment variable prefix.
	AppName = "fxkit"
	// CUEFileName is looked up first in the project root.
	CUEFileName = "fxkit.cue"
	// TOMLFileName is looked up when no CUE file exists.
	TOMLFileName = "fxkit.toml"

	schemaDefinition = "#Config"
)

// ErrConfigExists is returned by Init when the project already has a
// configuration file.
var ErrConfigExists = errors.New("config file already exists")

// literalSections bypass viper, which lowercases map keys and splits them
// on dots. Define keys such as "process.env.API_URL" and manifest metadata
// keys are kept verbatim.
var literalSections = [][]string{
	{"build", "base", "define"},
	{"build", "environments"},
	{"manifest", "metadata"},
}

//go:embed config_schema.cue
var configSchema string

// loadWithOptions reads the configuration without caching. Precedence, from
// lowest: defaults, the config file, FXKIT_* environment variables.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load config canceled: %w", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolvePath(opts)
	if err != nil {
		return nil, err
	}
	var literal map[string]any
	if path != "" {
		if literal, err = mergeFile(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithIssue(issue.ConfigLoadFailedId).
				WithResource(path).
				WithSuggestion("Check the file syntax").
				WithSuggestion("Compare the values with 'fxkit config show'").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := applyLiteral(&cfg, literal); err != nil {
		return nil, err
	}
	cfg.Source = path

	if ok, errs := cfg.IsValid(); !ok {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithResource(path).
			WithSuggestion("Give every build environment a distinct name").
			WithSuggestion("Use one of the listed values for ui settings").
			Wrap(errors.Join(errs...)).
			BuildError()
	}
	return &cfg, nil
}

// resolvePath picks the file to read: the explicit path if one is given,
// otherwise fxkit.cue, then fxkit.toml, in the project directory. An empty
// result means no file applies.
func resolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithIssue(issue.ConfigLoadFailedId).
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the path passed to --config").
				WithSuggestion("Run 'fxkit config init' to create a configuration file").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	for _, name := range []string{CUEFileName, TOMLFileName} {
		if candidate := filepath.Join(dir, name); fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// mergeFile validates the file at path and merges it into v. The literal
// sections are removed from the merge and returned instead.
func mergeFile(v *viper.Viper, path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var values map[string]any
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		values, err = validateTOML(data, path)
	} else {
		values, err = cueutil.Validate(configSchema, schemaDefinition, data, cueutil.WithFilename(path))
	}
	if err != nil {
		return nil, err
	}

	literal := takeLiteral(values)
	if err := v.MergeConfigMap(values); err != nil {
		return nil, fmt.Errorf("merge config: %w", err)
	}
	return literal, nil
}

// takeLiteral moves the literalSections out of values into a new tree of
// the same shape.
func takeLiteral(values map[string]any) map[string]any {
	literal := make(map[string]any)
	for _, path := range literalSections {
		src, dst := values, literal
		found := true
		for _, key := range path[:len(path)-1] {
			next, ok := src[key].(map[string]any)
			if !ok {
				found = false
				break
			}
			src = next
			child, ok := dst[key].(map[string]any)
			if !ok {
				child = make(map[string]any)
				dst[key] = child
			}
			dst = child
		}
		last := path[len(path)-1]
		if value, ok := src[last]; found && ok {
			dst[last] = value
			delete(src, last)
		}
	}
	return literal
}

// applyLiteral copies the literal sections onto cfg. Environments fall back
// to the defaults when the file does not list any.
func applyLiteral(cfg *Config, literal map[string]any) error {
	var overlay Config
	if len(literal) > 0 {
		data, err := json.Marshal(literal)
		if err != nil {
			return fmt.Errorf("decode config: %w", err)
		}
		if err := json.Unmarshal(data, &overlay); err != nil {
			return fmt.Errorf("decode config: %w", err)
		}
	}

	if overlay.Build.Base.Define != nil {
		cfg.Build.Base.Define = overlay.Build.Base.Define
	}
	if overlay.Manifest.Metadata != nil {
		cfg.Manifest.Metadata = overlay.Manifest.Metadata
	}
	if cfg.Manifest.Metadata == nil {
		cfg.Manifest.Metadata = map[string]string{}
	}
	cfg.Build.Environments = overlay.Build.Environments
	if cfg.Build.Environments == nil {
		cfg.Build.Environments = DefaultConfig().Build.Environments
	}
	return nil
}

// validateTOML decodes a TOML file and checks it against the same schema as
// CUE files.
func validateTOML(data []byte, path string) (map[string]any, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %s", path, row, col, decodeErr.Error())
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cueutil.ValidateValues(configSchema, schemaDefinition, raw, cueutil.WithFilename(path))
}

// setDefaults registers every leaf key handled by viper so that environment
// variables can override keys absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("doc.dir", d.Doc.Dir)
	v.SetDefault("doc.out", d.Doc.Out)
	v.SetDefault("doc.tsconfig", d.Doc.TSConfig)
	v.SetDefault("doc.package", d.Doc.Package)

	v.SetDefault("build.out_dir", d.Build.OutDir)
	v.SetDefault("build.stamp_file", d.Build.StampFile)
	v.SetDefault("build.type_check", d.Build.TypeCheck)
	v.SetDefault("build.env_files", d.Build.EnvFiles)
	v.SetDefault("build.manifest", d.Build.Manifest)
	v.SetDefault("build.base.platform", d.Build.Base.Platform)
	v.SetDefault("build.base.format", d.Build.Base.Format)
	v.SetDefault("build.base.target", d.Build.Base.Target)
	v.SetDefault("build.base.minify", d.Build.Base.Minify)
	v.SetDefault("build.base.sourcemap", d.Build.Base.Sourcemap)
	v.SetDefault("build.base.external", d.Build.Base.External)

	v.SetDefault("manifest.path", d.Manifest.Path)
	v.SetDefault("manifest.files", d.Manifest.Files)
	v.SetDefault("manifest.dependencies", d.Manifest.Dependencies)
	v.SetDefault("manifest.client_scripts", d.Manifest.ClientScripts)
	v.SetDefault("manifest.server_scripts", d.Manifest.ServerScripts)

	v.SetDefault("ui.color_scheme", d.UI.ColorScheme)
	v.SetDefault("ui.log_level", d.UI.LogLevel)
	v.SetDefault("ui.verbose", d.UI.Verbose)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Init writes the default configuration as fxkit.cue into dir and returns
// its path. An existing fxkit.cue or fxkit.toml is left alone.
func Init(dir string) (string, error) {
	for _, name := range []string{CUEFileName, TOMLFileName} {
		if existing := filepath.Join(dir, name); fileExists(existing) {
			return existing, fmt.Errorf("%w: %s", ErrConfigExists, existing)
		}
	}

	path := filepath.Join(dir, CUEFileName)
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("write config file: %w", err)
	}
	return path, nil
}

// GenerateCUE renders cfg in the fxkit.cue format.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// fxkit configuration\n\n")

	sb.WriteString("doc: {\n")
	fmt.Fprintf(&sb, "\tdir:      %q\n", cfg.Doc.Dir)
	fmt.Fprintf(&sb, "\tout:      %q\n", cfg.Doc.Out)
	fmt.Fprintf(&sb, "\ttsconfig: %q\n", cfg.Doc.TSConfig)
	fmt.Fprintf(&sb, "\tpackage:  %q\n", cfg.Doc.Package)
	sb.WriteString("}\n")

	sb.WriteString("\nbuild: {\n")
	fmt.Fprintf(&sb, "\tout_dir:    %q\n", cfg.Build.OutDir)
	fmt.Fprintf(&sb, "\tstamp_file: %q\n", cfg.Build.StampFile)
	fmt.Fprintf(&sb, "\ttype_check: %q\n", cfg.Build.TypeCheck)
	writeCUEList(&sb, "\t", "env_files", cfg.Build.EnvFiles)
	fmt.Fprintf(&sb, "\tmanifest:   %v\n", cfg.Build.Manifest)
	if bundle := bundleCUE(cfg.Build.Base); bundle != "" {
		fmt.Fprintf(&sb, "\tbase: %s\n", bundle)
	}
	if len(cfg.Build.Environments) > 0 {
		sb.WriteString("\tenvironments: [\n")
		for _, env := range cfg.Build.Environments {
			if bundle := bundleCUE(env.Options); bundle != "" {
				fmt.Fprintf(&sb, "\t\t{name: %q, options: %s},\n", env.Name, bundle)
			} else {
				fmt.Fprintf(&sb, "\t\t{name: %q},\n", env.Name)
			}
		}
		sb.WriteString("\t]\n")
	}
	sb.WriteString("}\n")

	sb.WriteString("\nmanifest: {\n")
	fmt.Fprintf(&sb, "\tpath: %q\n", cfg.Manifest.Path)
	writeCUEList(&sb, "\t", "files", cfg.Manifest.Files)
	writeCUEList(&sb, "\t", "dependencies", cfg.Manifest.Dependencies)
	writeCUEList(&sb, "\t", "client_scripts", cfg.Manifest.ClientScripts)
	writeCUEList(&sb, "\t", "server_scripts", cfg.Manifest.ServerScripts)
	if len(cfg.Manifest.Metadata) > 0 {
		sb.WriteString("\tmetadata: {\n")
		for _, key := range slices.Sorted(maps.Keys(cfg.Manifest.Metadata)) {
			fmt.Fprintf(&sb, "\t\t%q: %q\n", key, cfg.Manifest.Metadata[key])
		}
		sb.WriteString("\t}\n")
	}
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tlog_level:    %q\n", cfg.UI.LogLevel)
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

func writeCUEList(sb *strings.Builder, indent, name string, values []string) {
	if len(values) == 0 {
		return
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	fmt.Fprintf(sb, "%s%s: [%s]\n", indent, name, strings.Join(quoted, ", "))
}

// bundleCUE renders the set fields of b as an inline struct, or "" when no
// field is set.
func bundleCUE(b BundleConfig) string {
	var fields []string
	if b.Platform != "" {
		fields = append(fields, fmt.Sprintf("platform: %q", b.Platform))
	}
	if b.Format != "" {
		fields = append(fields, fmt.Sprintf("format: %q", b.Format))
	}
	if b.Target != "" {
		fields = append(fields, fmt.Sprintf("target: %q", b.Target))
	}
	if b.Minify {
		fields = append(fields, "minify: true")
	}
	if b.Sourcemap {
		fields = append(fields, "sourcemap: true")
	}
	if len(b.External) > 0 {
		quoted := make([]string, len(b.External))
		for i, e := range b.External {
			quoted[i] = fmt.Sprintf("%q", e)
		}
		fields = append(fields, "external: ["+strings.Join(quoted, ", ")+"]")
	}
	if len(b.Define) > 0 {
		defs := make([]string, 0, len(b.Define))
		for _, key := range slices.Sorted(maps.Keys(b.Define)) {
			defs = append(defs, fmt.Sprintf("%q: %q", key, b.Define[key]))
		}
		fields = append(fields, "define: {"+strings.Join(defs, ", ")+"}")
	}
	if len(fields) == 0 {
		return ""
	}
	return "{" + strings.Join(fields, ", ") + "}"
}
