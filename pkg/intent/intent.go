// Package intent implements the Intent Classifier (spec.md §4.4, C4): a
// pure, total function mapping a tool invocation to a finite sequence of
// intent tokens.
package intent

import (
	"path/filepath"
	"strings"
)

// Intent is one of the fixed vocabulary tokens spec.md §4.4 enumerates.
type Intent string

const (
	Write       Intent = "write"
	Edit        Intent = "edit"
	Commit      Intent = "commit"
	Push        Intent = "push"
	Deploy      Intent = "deploy"
	Delete      Intent = "delete"
	WriteTest   Intent = "write_test"
	WriteImpl   Intent = "write_impl"
	WriteDocs   Intent = "write_docs"
	WriteConfig Intent = "write_config"
	EditTest    Intent = "edit_test"
	EditImpl    Intent = "edit_impl"
	EditDocs    Intent = "edit_docs"
	EditConfig  Intent = "edit_config"
	Read        Intent = "read"
	Run         Intent = "run"
)

// Invocation is the opaque tool call the classifier inspects. Only Tool,
// Path, and Command are ever read; the remaining Params are passed through
// untouched for the Gate/collaborators to use.
type Invocation struct {
	Tool    string
	Path    string // target file path, for file-oriented tools
	Command string // shell command line, for shell-like tools
	Params  map[string]any
}

// writeTools and editTools classify common file-oriented tool names into
// base write/edit intents before path-aware subdivision narrows them.
var writeTools = map[string]bool{
	"write": true, "create": true, "write_file": true,
}

var editTools = map[string]bool{
	"edit": true, "str_replace": true, "patch": true, "update_file": true,
}

// configFilenames is the closed set of filenames the classifier treats as
// config regardless of extension (spec.md §4.4).
var configFilenames = map[string]bool{
	"package.json":        true,
	"cargo.toml":          true,
	"go.mod":              true,
	"pyproject.toml":      true,
	"vercel.json":         true,
	"netlify.toml":        true,
	"dockerfile":          true,
	"docker-compose.yml":  true,
	"docker-compose.yaml": true,
}

// configExtensions are extensions (without the dot) always treated as config.
var configExtensions = map[string]bool{
	"yaml": true, "yml": true, "toml": true, "ini": true,
}

// docExtensions are extensions (without the dot) always treated as docs.
var docExtensions = map[string]bool{
	"md": true, "mdx": true, "rst": true, "adoc": true, "txt": true,
}

// shellSeparators splits a shell command into segments (spec.md §4.4).
var shellSeparators = []string{"&&", "||", ";", "|"}

// shellVerbs maps a segment's leading tokens to an intent.
var shellVerbs = map[string]Intent{
	"git commit":     Commit,
	"git push":       Push,
	"rm":             Delete,
	"git rm":         Delete,
	"kubectl apply":  Deploy,
	"kubectl delete": Delete,
	"docker push":    Push,
	"docker deploy":  Deploy,
	"npm publish":    Deploy,
}

// Classify is the classifier's total function: tool invocation -> intent
// sequence. It always returns at least one intent.
func Classify(inv Invocation) []Intent {
	tool := strings.ToLower(strings.TrimSpace(inv.Tool))

	if inv.Command != "" || tool == "bash" || tool == "shell" || tool == "run_command" {
		return classifyShell(inv.Command)
	}

	switch {
	case tool == "read" || tool == "read_file" || tool == "cat":
		return []Intent{Read}
	case writeTools[tool]:
		return []Intent{subdivide(Write, inv.Path)}
	case editTools[tool]:
		return []Intent{subdivide(Edit, inv.Path)}
	}

	// Unknown tool name: spec.md §7 ClassifierUnknown -> "run", never fatal.
	return []Intent{Run}
}

// subdivide refines base (write|edit) into its _test/_docs/_config/_impl
// variant based on path (spec.md §4.4, first-match-wins).
func subdivide(base Intent, path string) Intent {
	if path == "" {
		if base == Write {
			return WriteImpl
		}
		return EditImpl
	}

	norm := filepath.ToSlash(path)
	// Pad with leading/trailing slashes so a directory segment matches
	// whether it opens the path, closes it, or sits in the middle.
	lower := "/" + strings.ToLower(norm) + "/"
	filename := strings.ToLower(filepath.Base(norm))
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(norm)), ".")

	isTest := strings.Contains(lower, "/test/") ||
		strings.Contains(lower, "/tests/") ||
		strings.Contains(lower, "/__tests__/") ||
		hasSuffixAny(filename, ".test.", ".spec.", "_test.")

	isDocs := docExtensions[ext] || strings.Contains(lower, "/docs/")

	isConfig := configFilenames[filename] ||
		strings.HasPrefix(filename, "tsconfig") && ext == "json" ||
		strings.HasPrefix(filename, "wrangler.") ||
		strings.HasPrefix(filename, "docker-compose.") ||
		configExtensions[ext]

	switch {
	case isTest:
		if base == Write {
			return WriteTest
		}
		return EditTest
	case isDocs:
		if base == Write {
			return WriteDocs
		}
		return EditDocs
	case isConfig:
		if base == Write {
			return WriteConfig
		}
		return EditConfig
	default:
		if base == Write {
			return WriteImpl
		}
		return EditImpl
	}
}

func hasSuffixAny(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.Contains(s, suf) {
			return true
		}
	}
	return false
}

// classifyShell splits command on shell separators and classifies each
// segment's leading tokens (spec.md §4.4). A command invocation always
// yields at least one intent; unrecognized segments yield Run.
func classifyShell(command string) []Intent {
	command = strings.TrimSpace(command)
	if command == "" {
		return []Intent{Run}
	}

	segments := splitShell(command)
	intents := make([]Intent, 0, len(segments))
	for _, seg := range segments {
		intents = append(intents, classifySegment(seg))
	}
	if len(intents) == 0 {
		return []Intent{Run}
	}
	return intents
}

func splitShell(command string) []string {
	segments := []string{command}
	for _, sep := range shellSeparators {
		var next []string
		for _, seg := range segments {
			for _, part := range strings.Split(seg, sep) {
				if trimmed := strings.TrimSpace(part); trimmed != "" {
					next = append(next, trimmed)
				}
			}
		}
		segments = next
	}
	return segments
}

func classifySegment(segment string) Intent {
	fields := strings.Fields(segment)
	if len(fields) == 0 {
		return Run
	}
	if len(fields) >= 2 {
		two := strings.ToLower(fields[0] + " " + fields[1])
		if in, ok := shellVerbs[two]; ok {
			return in
		}
	}
	one := strings.ToLower(fields[0])
	if in, ok := shellVerbs[one]; ok {
		return in
	}
	return Run
}
