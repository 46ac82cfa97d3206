// SPDX-License-Identifier: MPL-2.0

package tsprogram

import (
	"path/filepath"
	"slices"
	"strings"
)

// DefaultTSConfigPath is the compiler configuration read when none is given.
const DefaultTSConfigPath = "./tsconfig.json"

var (
	tsExtensions = []string{".ts", ".tsx", ".mts", ".cts"}
	jsExtensions = []string{".js", ".jsx", ".mjs", ".cjs"}

	declarationSuffixes = []string{".d.ts", ".d.mts", ".d.cts"}
)

// Options are the compiler options that influence which files belong to a
// program and how module specifiers resolve.
type Options struct {
	// BaseURL is the absolute directory non-relative specifiers resolve
	// against. Empty disables baseUrl resolution.
	BaseURL string
	// Paths are compilerOptions.paths mappings. Targets are relative to
	// BaseURL, or to the tsconfig directory when BaseURL is empty.
	Paths map[string][]string
	// AllowJS admits .js/.jsx/.mjs/.cjs files as program sources.
	AllowJS bool
	// ConfigDir is the directory of the tsconfig the options came from.
	ConfigDir string
}

// OptionsFromTSConfig extracts Options from a decoded tsconfig.json. Unknown
// and non-applicable compiler options are ignored.
func OptionsFromTSConfig(cfg map[string]any, configPath string) Options {
	configDir, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		configDir = filepath.Dir(configPath)
	}

	opts := Options{ConfigDir: configDir}

	compilerOptions, _ := cfg["compilerOptions"].(map[string]any)
	if compilerOptions == nil {
		return opts
	}

	if baseURL, ok := compilerOptions["baseUrl"].(string); ok && baseURL != "" {
		opts.BaseURL = filepath.Join(configDir, filepath.FromSlash(baseURL))
	}

	if allowJS, ok := compilerOptions["allowJs"].(bool); ok {
		opts.AllowJS = allowJS
	}

	if paths, ok := compilerOptions["paths"].(map[string]any); ok {
		opts.Paths = make(map[string][]string, len(paths))
		for pattern, raw := range paths {
			targets, _ := raw.([]any)
			for _, target := range targets {
				if s, ok := target.(string); ok {
					opts.Paths[pattern] = append(opts.Paths[pattern], s)
				}
			}
		}
	}

	return opts
}

// SourceExtensions lists the file extensions the program accepts as sources.
func (o Options) SourceExtensions() []string {
	exts := slices.Clone(tsExtensions)
	if o.AllowJS {
		exts = append(exts, jsExtensions...)
	}
	return exts
}

// IsSourceFile reports whether path has an extension the program accepts.
func (o Options) IsSourceFile(path string) bool {
	return slices.Contains(o.SourceExtensions(), strings.ToLower(filepath.Ext(path)))
}

// IsDeclarationFile reports whether path names an ambient declaration file.
func IsDeclarationFile(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range declarationSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func (o Options) resolutionExtensions() []string {
	exts := []string{".ts", ".tsx", ".d.ts", ".mts", ".cts"}
	if o.AllowJS {
		exts = append(exts, jsExtensions...)
	}
	return exts
}

// pathsRoot is the directory compilerOptions.paths targets are relative to.
func (o Options) pathsRoot() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}
	return o.ConfigDir
}
