package runner

import (
	"strings"
)

const fence = "```"

// ExtractCode returns the snippet to execute from a model reply.
//
// With stripFences false the reply is returned verbatim. Otherwise a single
// surrounding ``` or ```python fence is removed, and a fenced block is pulled
// out of any leading or trailing prose when its opening fence sits on a line
// of its own. Backticks elsewhere, such as inside a string literal, are left
// alone. Replies without a fence are returned trimmed.
func ExtractCode(reply string, stripFences bool) string {
	if !stripFences {
		return reply
	}

	trimmed := strings.TrimSpace(reply)
	if strings.HasPrefix(trimmed, fence) {
		return fencedBody(trimmed[len(fence):])
	}

	lines := strings.Split(trimmed, "\n")
	for i, line := range lines {
		if isFenceOpener(line) {
			return closeFence(lines[i+1:])
		}
	}

	return trimmed
}

// fencedBody handles a reply that starts with a fence; body follows the opening ```.
func fencedBody(body string) string {
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		// Single-line fence such as ```bpy.ops.mesh.primitive_cube_add()```
		return strings.TrimSpace(strings.TrimSuffix(body, fence))
	}

	// Drop the info string (```python, ```py) up to the first newline
	if info := strings.TrimSpace(body[:nl]); info == "" || isLanguageTag(info) {
		body = body[nl+1:]
	}

	return closeFence(strings.Split(body, "\n"))
}

// closeFence joins lines up to the closing fence. An unterminated block runs
// to the end of the reply.
func closeFence(lines []string) string {
	var kept []string
	for _, line := range lines {
		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(t, fence):
			return strings.TrimSpace(strings.Join(kept, "\n"))
		case strings.HasSuffix(t, fence):
			kept = append(kept, strings.TrimSuffix(strings.TrimRight(line, " \t\r"), fence))
			return strings.TrimSpace(strings.Join(kept, "\n"))
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isFenceOpener(line string) bool {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, fence) {
		return false
	}
	info := strings.TrimSpace(t[len(fence):])
	return info == "" || isLanguageTag(info)
}

func isLanguageTag(s string) bool {
	switch strings.ToLower(s) {
	case "python", "py", "python3", "bpy":
		return true
	}
	return false
}
