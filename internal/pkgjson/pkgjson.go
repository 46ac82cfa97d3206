// SPDX-License-Identifier: MPL-2.0

// Package pkgjson models the subset of package.json that fxkit reads.
package pkgjson

import (
	"encoding/json"
	"strings"

	"github.com/fxkit/fxkit/internal/fsutil"
)

// DefaultPath is the package metadata file read when none is configured.
const DefaultPath = "package.json"

type (
	// Package is the resource's package metadata.
	Package struct {
		Name        string     `json:"name"`
		Author      Person     `json:"author"`
		Version     string     `json:"version"`
		License     string     `json:"license"`
		Repository  Repository `json:"repository"`
		Description string     `json:"description"`
	}

	// Person is an npm person field. It accepts both the string shorthand
	// ("Jane <jane@example.com>") and the object form.
	Person string

	// Repository is an npm repository field. A bare string is taken as the URL.
	Repository struct {
		Type string `json:"type,omitempty"`
		URL  string `json:"url,omitempty"`
	}
)

// Load reads package metadata from path.
func Load(path string) (*Package, error) {
	pkg, err := fsutil.LoadJSON[Package](path)
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

// UnmarshalJSON accepts a string or {name, email, url}.
func (p *Person) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = Person(s)
		return nil
	}

	var obj struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		URL   string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	parts := make([]string, 0, 3)
	if obj.Name != "" {
		parts = append(parts, obj.Name)
	}
	if obj.Email != "" {
		parts = append(parts, "<"+obj.Email+">")
	}
	if obj.URL != "" {
		parts = append(parts, "("+obj.URL+")")
	}
	*p = Person(strings.Join(parts, " "))
	return nil
}

// UnmarshalJSON accepts a URL string or {type, url}.
func (r *Repository) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = Repository{URL: s}
		return nil
	}

	type plain Repository
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Repository(v)
	return nil
}

// String returns the person as a single line.
func (p Person) String() string { return string(p) }
