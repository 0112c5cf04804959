package render

import (
	"errors"
	"strings"
	"testing"
)

func TestSubstitute_KeepMissing(t *testing.T) {
	out, err := Substitute("Dear {{recipientName}}, from {{ organization }} and {{senderName}}.",
		map[string]string{"recipientName": "Ann", "organization": "Acme"}, KeepMissing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Dear Ann, from Acme and {{senderName}}." {
		t.Errorf("unexpected output %q", out)
	}
}

func TestSubstitute_ErrorOnMissing(t *testing.T) {
	_, err := Substitute("{{b}} {{a}} {{b}} {{c}}", map[string]string{"c": ""}, ErrorOnMissing)

	var missing *MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingError, got %v", err)
	}
	if strings.Join(missing.Names, ",") != "a,b" {
		t.Errorf("expected sorted distinct names a,b got %v", missing.Names)
	}
}

func TestSubstitute_ValuesAreNotReexpanded(t *testing.T) {
	out, _ := Substitute("{{a}}", map[string]string{"a": "{{b}}", "b": "x"}, KeepMissing)
	if out != "{{b}}" {
		t.Errorf("expected value inserted verbatim, got %q", out)
	}
}

func TestNormalizePlaceholders(t *testing.T) {
	got := NormalizePlaceholders("Hi ${recipientName}, ${ senderTitle } costs $5 {{kept}}")
	want := "Hi {{recipientName}}, {{senderTitle}} costs $5 {{kept}}"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestVariables(t *testing.T) {
	got := Variables("{{a}} ${b} {{ a }} {{c}}")
	if strings.Join(got, ",") != "a,b,c" {
		t.Errorf("unexpected variables %v", got)
	}
	if Variables("no placeholders") != nil {
		t.Error("expected nil for body without placeholders")
	}
}

func TestPreview_PlainText(t *testing.T) {
	got := Preview("Dear ${name},\n<3 from us", map[string]string{"name": "Bob & Co"})
	if got != "Dear Bob &amp; Co,<br>&lt;3 from us" {
		t.Errorf("unexpected preview %q", got)
	}
}

func TestPreview_StripsScripts(t *testing.T) {
	got := Preview(`<p onclick="x()">Hi {{name}}</p><script>alert(1)</script><a href="javascript:x()">l</a>`,
		map[string]string{"name": "Ann"})
	if strings.Contains(got, "script") || strings.Contains(got, "onclick") || strings.Contains(got, "javascript:") {
		t.Errorf("unsafe markup survived: %q", got)
	}
	if !strings.Contains(got, "<p>Hi Ann</p>") {
		t.Errorf("expected substituted paragraph, got %q", got)
	}
}
