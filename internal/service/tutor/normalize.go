package tutor

import "strings"

// emptyResponsePlaceholder is shown when normalization leaves nothing.
const emptyResponsePlaceholder = "empty response"

// delimiterReplacer strips literal LaTeX delimiters the model produces
// despite the persona's plain-text instruction.
var delimiterReplacer = strings.NewReplacer(
	`\(`, "",
	`\)`, "",
	"$", "",
)

// operatorReplacer maps LaTeX operator macros to plain math symbols.
// The padded variants come first so "3 \times 4" collapses to "3×4".
var operatorReplacer = strings.NewReplacer(
	` \times `, "×",
	`\times`, "×",
	` \cdot `, "×",
	`\cdot`, "×",
	` \div `, "÷",
	`\div`, "÷",
)

// Normalize turns raw completion text into display-ready text. It is a
// best-effort cosmetic cleanup of literal substrings, applied in a fixed
// order so later passes see the output of earlier ones. It never tries to
// balance or validate delimiter pairs.
func Normalize(raw string) string {
	s := delimiterReplacer.Replace(raw)
	s = operatorReplacer.Replace(s)
	s = stripBulletMarkers(s)

	s = strings.TrimSpace(s)
	if s == "" {
		return emptyResponsePlaceholder
	}
	return s
}

// stripBulletMarkers removes the leading "• " markers the persona prompt
// occasionally over-produces at the start of lines.
func stripBulletMarkers(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		for strings.HasPrefix(line, "• ") {
			line = strings.TrimPrefix(line, "• ")
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
