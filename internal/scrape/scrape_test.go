package scrape

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `
<html><body>
<nav><a href="/kontakt/">Kontakt</a><a href="/nyheter/">Nyheter</a></nav>
<ul class="news-list">
  <li>
    <h2>Skolkort till alla elever</h2>
    <time datetime="2024-03-03">3 mars 2024</time>
    <a href="/nyheter/skolkort-till-alla-elever/">Läs mer</a>
  </li>
  <li>
    <a href="https://www.linkoping.se/nyheter/drottninggatan-byggs-om/">Drottninggatan byggs om</a>
    <span>snart</span>
  </li>
  <li>
    <h2>Dubblett</h2>
    <a href="/nyheter/skolkort-till-alla-elever/">Samma nyhet igen</a>
  </li>
  <li>
    <a href="https://example.com/nyheter/extern/">Extern nyhet</a>
  </li>
</ul>
</body></html>`

func mustBase(t *testing.T) *url.URL {
	t.Helper()
	base, err := url.Parse("https://www.linkoping.se/nyheter/")
	require.NoError(t, err)
	return base
}

func TestListingStubs(t *testing.T) {
	t.Parallel()

	stubs := New(5).ListingStubs([]byte(listingHTML), mustBase(t))
	require.Len(t, stubs, 2)

	assert.Equal(t, "Skolkort till alla elever", stubs[0].Title)
	assert.Equal(t, "2024-03-03", stubs[0].DateText)
	assert.Equal(t, "https://www.linkoping.se/nyheter/skolkort-till-alla-elever/", stubs[0].URL)

	assert.Equal(t, "Drottninggatan byggs om", stubs[1].Title)
	assert.Contains(t, stubs[1].DateText, "snart")
	assert.Equal(t, "https://www.linkoping.se/nyheter/drottninggatan-byggs-om/", stubs[1].URL)
}

func TestListingStubsMaxItems(t *testing.T) {
	t.Parallel()

	stubs := New(1).ListingStubs([]byte(listingHTML), mustBase(t))
	require.Len(t, stubs, 1)
	assert.Equal(t, "Skolkort till alla elever", stubs[0].Title)
}

func TestListingStubsMissingMarkup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "empty document", body: ""},
		{name: "no anchors", body: "<html><body><p>inga nyheter</p></body></html>"},
		{name: "only navigation", body: `<html><body><a href="/kontakt/">Kontakt</a><a href="/nyheter/">Nyheter</a></body></html>`},
		{name: "anchors without text", body: `<html><body><a href="/nyheter/tom/"><img src="x.png"/></a></body></html>`},
		{name: "not html at all", body: "{\"detta\": \"är json\"}"},
	}

	base := mustBase(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubs := New(5).ListingStubs([]byte(tt.body), base)
			assert.Empty(t, stubs)
		})
	}
}

func TestListingStubsAnchorTextFallback(t *testing.T) {
	t.Parallel()

	body := `<html><body><div><a href="/nyheter/en-nyhet/">Rubrik i länken</a></div></body></html>`
	stubs := New(5).ListingStubs([]byte(body), mustBase(t))
	require.Len(t, stubs, 1)
	assert.Equal(t, "Rubrik i länken", stubs[0].Title)
}

func TestDetailContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "article paragraphs preferred",
			body: `<html><body><nav>meny</nav><article><p>Första stycket.</p><p>Andra stycket.</p></article><footer>sidfot</footer></body></html>`,
			want: "Första stycket. Andra stycket.",
		},
		{
			name: "article text when no paragraphs",
			body: `<html><body><article>Bara text i artikeln</article></body></html>`,
			want: "Bara text i artikeln",
		},
		{
			name: "main fallback",
			body: `<html><body><main><p>Innehåll i main.</p></main></body></html>`,
			want: "Innehåll i main.",
		},
		{
			name: "loose paragraphs fallback",
			body: `<html><body><div><p>Stycke utan region.</p></div></body></html>`,
			want: "Stycke utan region.",
		},
		{
			name: "body text as last resort",
			body: `<html><body><div>bara en div</div></body></html>`,
			want: "bara en div",
		},
		{
			name: "script and nav skipped",
			body: `<html><body><script>var x=1;</script><nav>meny</nav><article><p>Innehåll.</p></article></body></html>`,
			want: "Innehåll.",
		},
		{
			name: "nothing extractable",
			body: `<html><body></body></html>`,
			want: "",
		},
	}

	e := New(5)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.DetailContent([]byte(tt.body)))
		})
	}
}
