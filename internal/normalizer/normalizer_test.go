package normalizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnglishNormalize(t *testing.T) {
	tokens := English{}.Normalize("Barcelona beats Real Madrid, and the fans are cheering!")
	assert.Equal(t, []string{"barcelona", "beat", "real", "madrid", "fan", StemWord("cheering")}, tokens)
}

func TestEnglishNormalizeDropsStopWordsAndPunctuation(t *testing.T) {
	assert.Empty(t, English{}.Normalize("the of and ... !!!"))
	assert.Equal(t, []string{"2024"}, English{}.Normalize("in 2024"))
}

func TestStemWordKeepsStopWords(t *testing.T) {
	assert.Equal(t, "the", StemWord("The"))
	assert.Equal(t, "win", StemWord("WINS"))
}

func TestFuncAdapter(t *testing.T) {
	var n Normalizer = Func(strings.Fields)
	assert.Equal(t, []string{"a", "b"}, n.Normalize("a b"))
}

func TestExtractTextPrefersArticle(t *testing.T) {
	page := `<html><head><title>menu</title><script>var x = 1;</script></head>
<body><nav>home news</nav><article><h1>Real Madrid</h1><p>wins again</p></article></body></html>`
	text, err := ExtractText(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Real Madrid wins again", text)
}

func TestExtractTextClassSelector(t *testing.T) {
	page := `<body><div class="sidebar">ads</div><div class="wide article-body">transfer news</div></body>`
	text, err := ExtractText(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "transfer news", text)
}

func TestExtractTextFallsBackToWholeDocument(t *testing.T) {
	text, err := ExtractText(strings.NewReader("plain words <b>only</b><style>p{}</style>"))
	require.NoError(t, err)
	assert.Equal(t, "plain words only", text)
}
