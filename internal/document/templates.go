package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aymerick/raymond"
)

// renderTemplate substitutes {{param}} placeholders in a stored template.
func renderTemplate(promptText string, params map[string]string) (string, error) {
	ctx := make(map[string]any, len(params))
	for k, v := range params {
		ctx[k] = v
	}
	out, err := raymond.Render(promptText, ctx)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}

// fallbackText composes the built-in parameter-substitution document used
// when no stored template matches. Every input parameter appears
// literally, in stable order.
func fallbackText(docType, category string, params map[string]string) string {
	var b strings.Builder
	title := strings.ReplaceAll(docType, "_", " ")
	if title != "" {
		title = strings.ToUpper(title[:1]) + title[1:]
	}
	b.WriteString(title)
	if category != "" {
		b.WriteString(" (" + category + ")")
	}
	b.WriteString("\n\n")

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, params[k])
	}
	return b.String()
}
