package lockin

import (
	"strconv"
	"strings"
)

// formatFloat renders a float argument the way the instrument expects:
// shortest decimal form, no exponent padding.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// trimToken strips whitespace and stray carriage returns from a reply token.
func trimToken(s string) string {
	return strings.TrimSpace(s)
}

// splitTrace splits a trace reply on commas, dropping the empty token left
// by the instrument's trailing comma.
func splitTrace(reply string) []string {
	tokens := strings.Split(reply, ",")
	if len(tokens) > 0 && trimToken(tokens[len(tokens)-1]) == "" {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}
