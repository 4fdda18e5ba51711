package commands

import "strings"

// Context contains the input a command runs with
type Context struct {
	Args       string
	CurrentDir string
}

// NewContext creates a new command context
func NewContext(args, cwd string) *Context {
	return &Context{
		Args:       strings.TrimSpace(args),
		CurrentDir: cwd,
	}
}

// Parse splits a slash command line into its name and argument string.
// It reports false for input that is not a command, such as plain chat
// text, a lone "/", a path like "/etc/hosts" or the "//" escape.
func Parse(input string) (name, args string, ok bool) {
	trimmed := strings.TrimSpace(input)
	if len(trimmed) < 2 || trimmed[0] != '/' {
		return "", "", false
	}
	c := trimmed[1]
	if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
		return "", "", false
	}

	name, args, _ = strings.Cut(trimmed, " ")
	if strings.Contains(name[1:], "/") {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(args), true
}

// Unescape turns a leading "//" into "/" so a message can start with a
// slash without being read as a command. Other input is returned unchanged.
func Unescape(input string) string {
	if rest, ok := strings.CutPrefix(strings.TrimLeft(input, " \t"), "//"); ok {
		return "/" + rest
	}
	return input
}
