// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	TSConfigNotFoundId
	PackageJSONNotFoundId
	JSONParseErrorId
	TypeCheckFailedId
	BuildFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // fxkit documentation pages about the issue
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

fxkit reads ` + "`fxkit.cue`" + ` or ` + "`fxkit.toml`" + ` from the project root,
or the file given with ` + "`--config`" + `.

## Common causes:
- A syntax error in the file
- A field name that is not part of the schema (check the spelling)
- A value of the wrong type, such as a number where a string is expected
- Two build environments with the same name

## Things you can try:
- Print the effective configuration:
~~~
$ fxkit config show
~~~

- Start over from the defaults:
~~~
$ mv fxkit.cue fxkit.cue.bak
$ fxkit config init
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/tour/"},
	}

	tsconfigNotFoundIssue = &Issue{
		id: TSConfigNotFoundId,
		mdMsg: `
# No tsconfig.json found!

fxkit doc reads the compiler options (` + "`baseUrl`, `paths`" + `) from a
tsconfig file before scanning the sources.

## Things you can try:
- Run fxkit from the resource root
- Point fxkit at the file explicitly:
~~~
$ fxkit doc tsconfig=./src/tsconfig.json
~~~

- Or set it once in fxkit.cue:
~~~cue
doc: tsconfig: "./src/tsconfig.json"
~~~`,
		extLinks: []HttpLink{"https://www.typescriptlang.org/tsconfig"},
	}

	packageJSONNotFoundIssue = &Issue{
		id: PackageJSONNotFoundId,
		mdMsg: `
# No package.json found!

The package name becomes the module name of the generated declarations and
the manifest fields come from the package metadata.

## Things you can try:
- Run fxkit from the resource root
- Create one:
~~~
$ npm init -y
~~~

- Or point fxkit at another file:
~~~cue
doc: package: "../package.json"
~~~`,
	}

	jsonParseErrorIssue = &Issue{
		id: JSONParseErrorId,
		mdMsg: `
# Failed to parse a JSON file!

tsconfig.json accepts comments and trailing commas, package.json must be
strict JSON.

## Things you can try:
- Check the line and column in the error above
- Validate the file:
~~~
$ node -e "JSON.parse(require('fs').readFileSync('package.json', 'utf8'))"
~~~`,
	}

	typeCheckFailedIssue = &Issue{
		id: TypeCheckFailedId,
		mdMsg: `
# Type check failed!

The type-check command exited with an error, so no bundle was built.

## Things you can try:
- Fix the errors reported by tsc above
- Make sure the TypeScript tools are installed:
~~~
$ yarn install
~~~

- Use another command, or an empty one to skip type checking:
~~~cue
build: type_check: ""
~~~`,
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Build failed!

esbuild could not bundle one or more environments.

## Common causes:
- An environment directory without an ` + "`index.ts`" + ` entry point
- An import that cannot be resolved (install the package or mark it external)
- An unknown platform, format or target in the build options

## Things you can try:
- Mark runtime-provided modules as external:
~~~cue
build: base: external: ["@citizenfx/server"]
~~~`,
		extLinks: []HttpLink{"https://esbuild.github.io/api/"},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

fxkit could not write one of its outputs.

## Things you can try:
- Check the permissions of the output directory and fxmanifest.lua
- Stop other processes holding the file open (such as a running server)
- Run fxkit from a directory you own`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		tsconfigNotFoundIssue.Id():    tsconfigNotFoundIssue,
		packageJSONNotFoundIssue.Id(): packageJSONNotFoundIssue,
		jsonParseErrorIssue.Id():      jsonParseErrorIssue,
		typeCheckFailedIssue.Id():     typeCheckFailedIssue,
		buildFailedIssue.Id():         buildFailedIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		values = append(values, i)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
