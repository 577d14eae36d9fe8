package businessflow

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderPattern matches {{ path.to.value }} with optional inner spacing.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}`)

// Render fills every {{ path.to.value }} placeholder in content by walking
// the nested context map segment by segment. A missing key at any depth, or a
// present-but-nil value, renders as the empty string; literal braces never
// survive. This is a flat substitution engine only: no escaping, no control
// flow, no loops.
func Render(content string, context map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		path := placeholderPattern.FindStringSubmatch(match)[1]
		return resolvePath(context, path)
	})
}

// resolvePath walks the context by dot-separated segments
func resolvePath(context map[string]any, path string) string {
	var current any = context

	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = node[segment]
		if !ok {
			return ""
		}
	}

	if current == nil {
		return ""
	}

	switch v := current.(type) {
	case string:
		return v
	case map[string]any:
		// A placeholder pointing at a branch, not a leaf
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
