package playerjs

import "strings"

// Entry point names under which built units expose their function.
const (
	DecipherEntry   = "decipher"
	NTransformEntry = "ncode"
)

// Build assembles an extracted function and its helper into one self-contained
// source unit. The helper definition precedes the function so the reference
// inside the body resolves without any separate linking step; compiling the
// result and calling entry with one string argument returns the transformed
// string.
func Build(entry string, fn Function) string {
	var b strings.Builder
	if fn.Helper != "" {
		b.WriteString(fn.Helper)
		b.WriteString("\n")
	}
	b.WriteString("var ")
	b.WriteString(entry)
	b.WriteString("=function(")
	b.WriteString(fn.Param)
	b.WriteString(")")
	b.WriteString(fn.Body)
	b.WriteString(";")
	return b.String()
}
