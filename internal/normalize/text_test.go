package normalize

import "testing"

func TestText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain text untouched", in: "Skolkort till alla elever", want: "Skolkort till alla elever"},
		{name: "whitespace collapsed", in: "  Skolkort\n\ttill\r\n alla  elever  ", want: "Skolkort till alla elever"},
		{name: "tags stripped", in: "<p>Skolkort <strong>till</strong> alla</p>", want: "Skolkort till alla"},
		{name: "entities decoded", in: "Drottninggatan &amp; Storgatan", want: "Drottninggatan & Storgatan"},
		{name: "script leftovers removed", in: "före<script>var x = 1;</script>efter", want: "före efter"},
		{name: "style leftovers removed", in: "före<style>p { color: red }</style>efter", want: "före efter"},
		{name: "nbsp collapsed", in: "3 mars 2024", want: "3 mars 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.want {
				t.Fatalf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTextIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"redan normaliserad text",
		"  mellanslag   överallt  ",
		"<div><p>nästlad &amp; markup</p></div>",
		"&amp;amp; dubbelkodad",
		"&lt;script&gt;inte ett script&lt;/script&gt;",
		"a &lt; b &gt; c",
		"trasig <tagg utan slut",
		"<script>lämnad</script> kod",
	}

	for _, in := range inputs {
		once := Text(in)
		twice := Text(once)
		if once != twice {
			t.Fatalf("Text not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
