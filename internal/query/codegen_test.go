package query

import (
	"strings"
	"testing"
)

func TestEscapeDoublesQuotes(t *testing.T) {
	if got := Escape("it's"); got != "it''s" {
		t.Fatalf("Escape = %q", got)
	}
	if got := Quote("it's"); got != "'it''s'" {
		t.Fatalf("Quote = %q", got)
	}
	if got := SymbolLiteral("at:put:"); got != "#'at:put:'" {
		t.Fatalf("SymbolLiteral = %q", got)
	}
}

// unquote scans a literal the way the remote parser does: a doubled quote is
// an embedded quote, a single quote ends the literal. It reports the decoded
// value and the remainder after the closing quote.
func unquote(t *testing.T, literal string) (string, string) {
	t.Helper()
	if !strings.HasPrefix(literal, "'") {
		t.Fatalf("literal %q does not start with a quote", literal)
	}
	var out strings.Builder
	for i := 1; i < len(literal); i++ {
		if literal[i] != '\'' {
			out.WriteByte(literal[i])
			continue
		}
		if i+1 < len(literal) && literal[i+1] == '\'' {
			out.WriteByte('\'')
			i++
			continue
		}
		return out.String(), literal[i+1:]
	}
	t.Fatalf("literal %q is not terminated", literal)
	return "", ""
}

func TestQuoteRoundTripsAdversarialInput(t *testing.T) {
	inputs := []string{
		"",
		"'",
		"''",
		"it's",
		"'; System commitTransaction. '",
		"a'b'c'",
		"trailing'",
		"'leading",
		"new\nline\ttab",
		"unicode ü ' ✓",
		"']. Error signal: 'x",
	}
	for _, input := range inputs {
		literal := Quote(input)
		value, rest := unquote(t, literal)
		if value != input {
			t.Fatalf("round trip of %q produced %q", input, value)
		}
		if rest != "" {
			t.Fatalf("literal for %q terminated early, remainder %q", input, rest)
		}
	}
}

func TestGeneratedCodeQuotesCallerStrings(t *testing.T) {
	cases := map[string]string{
		"dictionary entries": DictionaryEntriesCode(2),
		"environments":       ClassEnvironmentsCode(1, "O'Brien", 0),
		"method source":      MethodSourceCode(1, "O'Brien", true, "it's", 0),
		"implementors":       ImplementorsCode("it's"),
		"text search":        MethodsContainingCode("it's"),
		"rename category":    RenameCategoryCode(1, "O'Brien", false, "it's", "it's new"),
		"comment":            SetClassCommentCode(1, "O'Brien", "it's a class"),
	}
	for name, code := range cases {
		if strings.Contains(code, "O'B") || strings.Contains(code, "it's") {
			t.Fatalf("%s: unescaped quote in generated code:\n%s", name, code)
		}
	}
	if !strings.Contains(MethodSourceCode(1, "O'Brien", true, "it's", 0), "#'it''s'") {
		t.Fatalf("expected escaped selector literal")
	}
	if !strings.Contains(MethodsContainingCode("it's"), "'it''s'") {
		t.Fatalf("expected escaped search literal")
	}
}

func TestGeneratorsAreDeterministic(t *testing.T) {
	if ClassEnvironmentsCode(3, "Object", 2) != ClassEnvironmentsCode(3, "Object", 2) {
		t.Fatalf("expected identical output for identical input")
	}
}

func TestClassEnvironmentsCodeEmbedsMaxEnvironment(t *testing.T) {
	code := ClassEnvironmentsCode(4, "Object", 2)
	if !strings.Contains(code, "0 to: 2 do:") {
		t.Fatalf("expected env range in code:\n%s", code)
	}
	if !strings.Contains(code, "(System myUserProfile symbolList at: 4) at: #'Object'") {
		t.Fatalf("expected class lookup in code:\n%s", code)
	}
	if !strings.Contains(ClassEnvironmentsCode(4, "Object", -1), "0 to: 0 do:") {
		t.Fatalf("expected negative max env clamped to 0")
	}
}

func TestMethodListCodeCapsRows(t *testing.T) {
	code := ImplementorsCode("size")
	if !strings.Contains(code, "limit := 500.") {
		t.Fatalf("expected 500 row cap:\n%s", code)
	}
	if !strings.Contains(code, TruncatedMarker) {
		t.Fatalf("expected truncation trailer:\n%s", code)
	}
}

func TestMutationCodeReturnsAcknowledgement(t *testing.T) {
	codes := []string{
		DeleteMethodCode(1, "Foo", false, "bar", 0),
		RecategorizeMethodCode(1, "Foo", true, "bar", "accessing"),
		RenameCategoryCode(1, "Foo", false, "a", "b"),
		DeleteClassCode(1, "Foo"),
		MoveClassCode(1, 2, "Foo"),
		AddDictionaryCode("Scratch"),
		RemoveDictionaryCode(3),
		MoveDictionaryCode(3, -1),
		SetClassCommentCode(1, "Foo", "text"),
		AbortCode(),
	}
	for _, code := range codes {
		if !strings.HasSuffix(code, ".\n'ok'") {
			t.Fatalf("expected acknowledgement suffix:\n%s", code)
		}
	}
}

func TestMetaSideUsesClassClass(t *testing.T) {
	code := DeleteMethodCode(2, "Foo", true, "new", 1)
	want := "(((System myUserProfile symbolList at: 2) at: #'Foo') class) removeSelector: #'new' environmentId: 1"
	if !strings.HasPrefix(code, want) {
		t.Fatalf("unexpected code:\n%s\nwant prefix:\n%s", code, want)
	}
}
