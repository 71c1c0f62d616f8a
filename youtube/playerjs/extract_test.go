package playerjs

import (
	"errors"
	"strings"
	"testing"

	"github.com/ytget/ytstream/errs"
)

// testPlayerJS is a condensed player script carrying the shapes the extractor
// has to recognize: a helper-object decipher, an n-transform behind an
// array-of-names indirection, and string literals containing braces.
const testPlayerJS = `var _yt_player={};(function(g){
var Bp={XY:function(a){a.reverse()},FP:function(a,b){a.splice(0,b)},ZQ:function(a,b){var c=a[0];a[0]=a[b%a.length];a[b%a.length]=c},NL:function(a){return a+"}"}};
hD=function(a){a=a.split("");Bp.FP(a,2);Bp.XY(a,0);Bp.ZQ(a,1);return a.join("")};
var mL=[kT];
kT=function(a){var b=a.split("");b.reverse();b.push("A");return b.join("")};
g.dec=function(d,a){var c=a.get("n");(c=a.get("n"))&&(c=mL[0](c),a.set("n",c))};
})(_yt_player);`

const testPlayerJSDirectN = `var _yt_player={};(function(g){
pW=function(x){var b=x.split("");b.reverse();return b.join("")};
g.dec=function(d,a){var b;(b=a.get("n"))&&(b=pW(b),a.set("n",b))};
qQ=function(a){a=a.split("");a.reverse();return a.join("")};
})(_yt_player);`

func TestExtractDecipher(t *testing.T) {
	fn, err := ExtractDecipher(testPlayerJS)
	if err != nil {
		t.Fatalf("ExtractDecipher() error: %v", err)
	}
	if fn.Name != "hD" {
		t.Errorf("Name = %q, want hD", fn.Name)
	}
	if fn.Param != "a" {
		t.Errorf("Param = %q, want a", fn.Param)
	}
	if !strings.HasPrefix(fn.Body, "{") || !strings.HasSuffix(fn.Body, "}") {
		t.Errorf("Body not brace-bounded: %q", fn.Body)
	}
	if !strings.Contains(fn.Body, `return a.join("")`) {
		t.Errorf("Body missing join: %q", fn.Body)
	}
	if !strings.HasPrefix(fn.Helper, "var Bp={") {
		t.Errorf("Helper = %q, want var Bp={...}", fn.Helper)
	}
	// The helper contains a brace inside a string literal; the scanner must
	// not have cut the object short.
	if !strings.Contains(fn.Helper, `NL:function(a){return a+"}"}`) {
		t.Errorf("Helper truncated: %q", fn.Helper)
	}
}

func TestExtractDecipherNotFound(t *testing.T) {
	_, err := ExtractDecipher(`var a=1;function noop(x){return x}`)
	if err == nil {
		t.Fatal("expected error for script without decipher")
	}
	if !IsNotFound(err) {
		t.Errorf("expected pattern-lookup error, got %v", err)
	}
	if !errors.Is(err, errs.ErrPatternNotFound) {
		t.Errorf("error should match errs.ErrPatternNotFound")
	}
}

func TestExtractNTransformIndexed(t *testing.T) {
	fn, err := ExtractNTransform(testPlayerJS)
	if err != nil {
		t.Fatalf("ExtractNTransform() error: %v", err)
	}
	if fn.Name != "kT" {
		t.Errorf("Name = %q, want kT (resolved through mL[0])", fn.Name)
	}
	if fn.Param != "a" {
		t.Errorf("Param = %q, want a", fn.Param)
	}
	if !strings.Contains(fn.Body, `b.push("A")`) {
		t.Errorf("Body = %q, want kT body", fn.Body)
	}
}

func TestExtractNTransformDirect(t *testing.T) {
	fn, err := ExtractNTransform(testPlayerJSDirectN)
	if err != nil {
		t.Fatalf("ExtractNTransform() error: %v", err)
	}
	if fn.Name != "pW" {
		t.Errorf("Name = %q, want pW", fn.Name)
	}
}

func TestExtractNTransformNotFound(t *testing.T) {
	_, err := ExtractNTransform(`var a=1;`)
	if err == nil {
		t.Fatal("expected error for script without n-transform")
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.Code != ErrCodeNTransformNotFound {
		t.Errorf("expected NTRANSFORM_FUNCTION_NOT_FOUND, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "vflset path",
			url:  "https://www.youtube.com/s/player/9419f2ea/player_ias.vflset/en_US/base.js",
			want: "9419f2ea",
		},
		{
			name: "relative path",
			url:  "/s/player/03bec62d/player_ias.vflset/en_US/base.js",
			want: "03bec62d",
		},
		{
			name:    "no version segment",
			url:     "https://example.com/player.js",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Version(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Version() = %q, want %q", got, tt.want)
			}
		})
	}
}
