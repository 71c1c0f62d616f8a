package playerjs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ytget/ytstream/internal/textscan"
)

// Function is one extracted player-script routine: its formal parameter, its
// body including braces, and the full definition of the helper object it
// references, when it references one.
type Function struct {
	Name   string
	Param  string
	Body   string
	Helper string
}

const jsIdent = `[a-zA-Z0-9$_]+`

// Decipher anchors, most specific first. Each pattern captures the function
// name, its parameter and the opening brace, in that group order. The body is
// never bounded by regex; the brace position feeds the balanced scanner.
var decipherAnchors = []*regexp.Regexp{
	// xx=function(a){a=a.split(...)
	regexp.MustCompile(`(` + jsIdent + `)\s*=\s*function\(\s*(` + jsIdent + `)\s*\)\s*(\{)\s*` + jsIdent + `\s*=\s*` + jsIdent + `\.split\(`),
	// function xx(a){a=a.split(...)
	regexp.MustCompile(`function\s+(` + jsIdent + `)\(\s*(` + jsIdent + `)\s*\)\s*(\{)\s*` + jsIdent + `\s*=\s*` + jsIdent + `\.split\(`),
	// xx:function(a){a=a.split(...)
	regexp.MustCompile(`(` + jsIdent + `)\s*:\s*function\(\s*(` + jsIdent + `)\s*\)\s*(\{)\s*` + jsIdent + `\s*=\s*` + jsIdent + `\.split\(`),
	// last resort: any single-parameter function; callers verify split/join
	regexp.MustCompile(`(` + jsIdent + `)\s*=\s*function\(\s*(` + jsIdent + `)\s*\)\s*(\{)`),
}

var methodCallRe = regexp.MustCompile(`(` + jsIdent + `)\.(` + jsIdent + `)\(`)

// n-transform call sites that go through an array-of-function-names
// indirection layer: groups are (array name, index).
var nIndexedAnchors = []*regexp.Regexp{
	regexp.MustCompile(`\.get\("n"\)\)&&\(` + jsIdent + `=(` + jsIdent + `)\[(\d+)\]\(` + jsIdent + `\)`),
	regexp.MustCompile(`\.get\("n"\)\)\s*&&\s*\(` + jsIdent + `\s*=\s*(` + jsIdent + `)\[(\d+)\]\(` + jsIdent + `\)`),
}

// n-transform call sites naming the function directly: group is the name.
var nDirectAnchors = []*regexp.Regexp{
	regexp.MustCompile(`\.get\("n"\)\)&&\(` + jsIdent + `=(` + jsIdent + `)\(` + jsIdent + `\)`),
	regexp.MustCompile(`\.get\("n"\)\)\s*&&\s*\(` + jsIdent + `\s*=\s*(` + jsIdent + `)\(` + jsIdent + `\)`),
	regexp.MustCompile(`\.get\("n"\).*?&&.*?\b(` + jsIdent + `)\(` + jsIdent + `\)`),
}

var versionRe = regexp.MustCompile(`/s/player/([0-9a-zA-Z_-]+)/`)

// Version derives the player version identifier from a player-script URL.
func Version(playerJSURL string) (string, error) {
	m := versionRe.FindStringSubmatch(playerJSURL)
	if len(m) < 2 {
		return "", NewError(ErrCodeVersionNotFound, "no version segment in player script url", playerJSURL)
	}
	return m[1], nil
}

// ExtractDecipher locates the signature decipher function and its helper
// object in player-script source. A broken decipher is required to be a
// visible failure: there is no identity fallback on this path.
func ExtractDecipher(js string) (Function, error) {
	for _, re := range decipherAnchors {
		for _, m := range re.FindAllStringSubmatchIndex(js, -1) {
			name := js[m[2]:m[3]]
			param := js[m[4]:m[5]]
			body, err := textscan.Balanced(js, m[6])
			if err != nil {
				continue
			}
			if !strings.Contains(body, param+".split(") || !strings.Contains(body, ".join(") {
				continue
			}
			fn := Function{Name: name, Param: param, Body: body}
			helperName := findHelperName(body, param)
			if helperName == "" {
				// Helper-free variants apply the transforms inline.
				return fn, nil
			}
			helper, err := extractObjectLiteral(js, helperName)
			if err != nil {
				return Function{}, NewError(ErrCodeDecipherHelperNotFound,
					"decipher helper object not found", helperName)
			}
			fn.Helper = helper
			return fn, nil
		}
	}
	return Function{}, NewError(ErrCodeDecipherNotFound, "no decipher anchor pattern matched")
}

// ExtractNTransform locates the throttling transform function. Call sites have
// used both a direct function name and an array-indexed lookup; for the latter
// the array literal is resolved by name and the element at the parsed index is
// the actual function name.
func ExtractNTransform(js string) (Function, error) {
	name := ""
	for _, re := range nIndexedAnchors {
		m := re.FindStringSubmatch(js)
		if len(m) < 3 {
			continue
		}
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if resolved := resolveArrayElement(js, m[1], idx); resolved != "" {
			name = resolved
			break
		}
	}
	if name == "" {
		for _, re := range nDirectAnchors {
			if m := re.FindStringSubmatch(js); len(m) >= 2 {
				name = m[1]
				break
			}
		}
	}
	if name == "" {
		return Function{}, NewError(ErrCodeNTransformNotFound, "no n-transform anchor pattern matched")
	}

	fn, err := extractFunctionByName(js, name)
	if err != nil {
		return Function{}, err
	}
	if helperName := findHelperName(fn.Body, fn.Param); helperName != "" {
		// The transform may lean on a helper object of its own; absence is
		// tolerated since some players inline everything.
		if helper, err := extractObjectLiteral(js, helperName); err == nil {
			fn.Helper = helper
		}
	}
	return fn, nil
}

// findHelperName returns the object of the first identifier.method( call in
// body whose identifier is not the function's own parameter.
func findHelperName(body, param string) string {
	for _, m := range methodCallRe.FindAllStringSubmatch(body, -1) {
		if m[1] != param {
			return m[1]
		}
	}
	return ""
}

// extractObjectLiteral returns "var name={...};" for the named object,
// bounding the literal with the balanced scanner.
func extractObjectLiteral(js, name string) (string, error) {
	re := regexp.MustCompile(`(?:var|let|const|,|;)\s*` + regexp.QuoteMeta(name) + `\s*=\s*(\{)`)
	m := re.FindStringSubmatchIndex(js)
	if m == nil {
		return "", NewError(ErrCodeDecipherHelperNotFound, "helper object literal not found", name)
	}
	literal, err := textscan.Balanced(js, m[2])
	if err != nil {
		return "", NewError(ErrCodeBodyUnterminated, "helper object literal unterminated", name)
	}
	return "var " + name + "=" + literal + ";", nil
}

// resolveArrayElement resolves name[idx] against an array literal of
// identifiers declared elsewhere in the script.
func resolveArrayElement(js, name string, idx int) string {
	re := regexp.MustCompile(`(?:var|let|const|,|;)\s*` + regexp.QuoteMeta(name) + `\s*=\s*\[([^\]]*)\]`)
	m := re.FindStringSubmatch(js)
	if len(m) < 2 {
		return ""
	}
	elems := strings.Split(m[1], ",")
	if idx < 0 || idx >= len(elems) {
		return ""
	}
	return strings.TrimSpace(elems[idx])
}

// extractFunctionByName locates a function definition in either assignment or
// declaration form and bounds its body with the balanced scanner.
func extractFunctionByName(js, name string) (Function, error) {
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(?:^|[;,\s{}(])` + regexp.QuoteMeta(name) + `\s*=\s*function\s*\(\s*(` + jsIdent + `)\s*\)\s*(\{)`),
		regexp.MustCompile(`function\s+` + regexp.QuoteMeta(name) + `\s*\(\s*(` + jsIdent + `)\s*\)\s*(\{)`),
	}
	for _, re := range patterns {
		m := re.FindStringSubmatchIndex(js)
		if m == nil {
			continue
		}
		param := js[m[2]:m[3]]
		body, err := textscan.Balanced(js, m[4])
		if err != nil {
			return Function{}, NewError(ErrCodeBodyUnterminated, "function body unterminated", name)
		}
		return Function{Name: name, Param: param, Body: body}, nil
	}
	return Function{}, NewError(ErrCodeNTransformNotFound, "function definition not found", name)
}
