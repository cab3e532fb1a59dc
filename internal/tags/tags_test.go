package tags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Go Lang!!":    "go-lang",
		"  trim me  ":  "trim-me",
		"already-slug": "already-slug",
		"___":          "tag",
		"":              "tag",
		"Café au Lait":  "caf-au-lait",
	}
	for in, want := range cases {
		require.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestNormalizeLabelsDedupesBySlugPreservesFirst(t *testing.T) {
	got := NormalizeLabels([]string{" Go ", "go", "GO!", "rust"}, 0)
	require.Equal(t, []string{"Go", "rust"}, got)
}

func TestNormalizeLabelsTruncatesToLimit(t *testing.T) {
	labels := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		labels = append(labels, string(rune('a'+i)))
	}
	got := NormalizeLabels(labels, 20)
	require.Len(t, got, 20)
}

func TestNormalizeLabelsDropsBlank(t *testing.T) {
	got := NormalizeLabels([]string{"", "   ", "real"}, 0)
	require.Equal(t, []string{"real"}, got)
}
