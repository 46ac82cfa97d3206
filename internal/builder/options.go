// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Options are the bundler settings that can be set per project and per
// environment. The zero value leaves every setting at the esbuild default.
type Options struct {
	// Platform is "browser", "node" or "neutral".
	Platform string
	// Format is "iife", "cjs" or "esm".
	Format string
	// Target is a comma separated list such as "es2021" or "node16,chrome90".
	Target    string
	Minify    bool
	Sourcemap bool
	External  []string
	// Define maps identifiers to the JavaScript expression replacing them.
	Define map[string]string
}

var (
	platforms = map[string]api.Platform{
		"browser": api.PlatformBrowser,
		"node":    api.PlatformNode,
		"neutral": api.PlatformNeutral,
	}

	formats = map[string]api.Format{
		"iife": api.FormatIIFE,
		"cjs":  api.FormatCommonJS,
		"esm":  api.FormatESModule,
	}

	languageTargets = map[string]api.Target{
		"esnext": api.ESNext,
		"es5":    api.ES5,
		"es6":    api.ES2015,
		"es2015": api.ES2015,
		"es2016": api.ES2016,
		"es2017": api.ES2017,
		"es2018": api.ES2018,
		"es2019": api.ES2019,
		"es2020": api.ES2020,
		"es2021": api.ES2021,
		"es2022": api.ES2022,
		"es2023": api.ES2023,
		"es2024": api.ES2024,
	}

	engines = map[string]api.EngineName{
		"chrome":  api.EngineChrome,
		"deno":    api.EngineDeno,
		"edge":    api.EngineEdge,
		"firefox": api.EngineFirefox,
		"ios":     api.EngineIOS,
		"node":    api.EngineNode,
		"opera":   api.EngineOpera,
		"safari":  api.EngineSafari,
	}

	engineTargetPattern = regexp.MustCompile(`^([a-z]+)(\d[\d.]*)$`)
)

// Merge returns o with every setting of override layered on top. Strings
// and booleans set in override win, External lists are concatenated and
// Define entries of override replace those of o with the same key.
func (o Options) Merge(override Options) Options {
	merged := o
	if override.Platform != "" {
		merged.Platform = override.Platform
	}
	if override.Format != "" {
		merged.Format = override.Format
	}
	if override.Target != "" {
		merged.Target = override.Target
	}
	merged.Minify = o.Minify || override.Minify
	merged.Sourcemap = o.Sourcemap || override.Sourcemap
	merged.External = slices.Concat(o.External, override.External)

	if len(o.Define) > 0 || len(override.Define) > 0 {
		merged.Define = make(map[string]string, len(o.Define)+len(override.Define))
		maps.Copy(merged.Define, o.Define)
		maps.Copy(merged.Define, override.Define)
	}
	return merged
}

// apply writes the options onto an esbuild build configuration.
func (o Options) apply(opts *api.BuildOptions) error {
	if o.Platform != "" {
		p, ok := platforms[strings.ToLower(o.Platform)]
		if !ok {
			return fmt.Errorf("unknown platform %q", o.Platform)
		}
		opts.Platform = p
	}

	if o.Format != "" {
		f, ok := formats[strings.ToLower(o.Format)]
		if !ok {
			return fmt.Errorf("unknown format %q", o.Format)
		}
		opts.Format = f
	}

	if o.Target != "" {
		target, engs, err := parseTarget(o.Target)
		if err != nil {
			return err
		}
		opts.Target = target
		opts.Engines = engs
	}

	if o.Minify {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}
	if o.Sourcemap {
		opts.Sourcemap = api.SourceMapLinked
	}
	if len(o.External) > 0 {
		opts.External = slices.Clone(o.External)
	}
	if len(o.Define) > 0 {
		opts.Define = maps.Clone(o.Define)
	}
	return nil
}

// parseTarget splits a target list into its language level and engine
// versions. At most one language level may appear.
func parseTarget(list string) (api.Target, []api.Engine, error) {
	var (
		target api.Target
		engs   []api.Engine
	)

	for raw := range strings.SplitSeq(list, ",") {
		item := strings.ToLower(strings.TrimSpace(raw))
		if item == "" {
			continue
		}

		if t, ok := languageTargets[item]; ok {
			if target != api.DefaultTarget {
				return api.DefaultTarget, nil, fmt.Errorf("target %q: more than one language level", list)
			}
			target = t
			continue
		}

		m := engineTargetPattern.FindStringSubmatch(item)
		if m == nil {
			return api.DefaultTarget, nil, fmt.Errorf("target %q: unrecognized entry %q", list, item)
		}
		name, ok := engines[m[1]]
		if !ok {
			return api.DefaultTarget, nil, fmt.Errorf("target %q: unknown engine %q", list, m[1])
		}
		engs = append(engs, api.Engine{Name: name, Version: m[2]})
	}

	return target, engs, nil
}
