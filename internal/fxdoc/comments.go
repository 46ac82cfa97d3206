// SPDX-License-Identifier: MPL-2.0

package fxdoc

import (
	"regexp"
	"strings"
)

var (
	decorationPattern = regexp.MustCompile(`^\s*\*\s*`)
	tagLinePattern    = regexp.MustCompile(`^\s*@\w+.*$`)
	// @param name text, @param {T} name - text, @param [name=default] text
	paramTagPattern = regexp.MustCompile(`^\s*@param\s+(?:\{[^}]*\}\s*)?\[?([\w$.]+)\S*\s*(?:-\s+)?(.*)$`)
)

// Description turns raw leading comments into prose: comment delimiters and
// leading "*" decoration are removed, tag lines (@param, @returns, ...) are
// blanked, and the result is trimmed. Internal newlines are kept.
func Description(comments []string) string {
	lines := commentLines(comments)
	for i, line := range lines {
		if tagLinePattern.MatchString(line) {
			lines[i] = ""
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ParamDocs maps parameter names to the first line of their @param tag.
func ParamDocs(comments []string) map[string]string {
	docs := make(map[string]string)
	for _, line := range commentLines(comments) {
		m := paramTagPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if _, seen := docs[m[1]]; !seen {
			docs[m[1]] = strings.TrimSpace(m[2])
		}
	}
	return docs
}

func commentLines(comments []string) []string {
	bodies := make([]string, len(comments))
	for i, c := range comments {
		bodies[i] = commentBody(c)
	}

	lines := strings.Split(strings.Join(bodies, "\n"), "\n")
	for i, line := range lines {
		lines[i] = decorationPattern.ReplaceAllString(line, "")
	}
	return lines
}

func commentBody(c string) string {
	if body, ok := strings.CutPrefix(c, "//"); ok {
		return strings.TrimPrefix(body, " ")
	}
	c = strings.TrimSuffix(c, "*/")
	if body, ok := strings.CutPrefix(c, "/**"); ok {
		return body
	}
	return strings.TrimPrefix(c, "/*")
}
