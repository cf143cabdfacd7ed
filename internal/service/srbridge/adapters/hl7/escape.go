package hl7

import "strings"

// HL7 delimiter escape sequences. The replacer runs in a single pass, so
// each delimiter in the input is rewritten exactly once.
var escaper = strings.NewReplacer(
	`\`, `\E\`,
	"|", `\F\`,
	"^", `\S\`,
	"&", `\T\`,
)

// Escape rewrites HL7 delimiter characters in a field value with their
// escape sequences. It is applied once per field value, never to separators
// the composer inserts itself.
func Escape(s string) string {
	return escaper.Replace(s)
}
