// Package vectorize implements the small slice of text vectorization the
// duplicate detector and ranking engine share: word/character tokenization,
// TF-IDF weighting, and cosine similarity. There is no off-the-shelf Go
// library for this in the surrounding stack (the source leans on
// scikit-learn's TfidfVectorizer/cosine_similarity), so it is reproduced
// here against the same parameterizations: char_wb n-grams for the
// character stage, word n-grams with English stopwords for the lexical
// stages.
package vectorize

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/orsinium-labs/stopwords"
)

var english = stopwords.MustGet("en")

// isJoiner mirrors the teacher's entity-matcher classification: characters
// that glue a token together rather than splitting it.
func isJoiner(r rune) bool {
	switch r {
	case '\'', '’', '‘',
		'-', '–', '—',
		'·', '.', '_', '/', '#', '&':
		return true
	default:
		return false
	}
}

func isSeparator(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || isJoiner(r) {
		return false
	}
	return true
}

// Words splits text into lowercase word tokens on the same boundary rules
// the teacher's entity matcher uses, so "don't" and "state-of-the-art"
// survive as single tokens.
func Words(text string) []string {
	lower := strings.ToLower(text)
	out := make([]string, 0, 32)
	i := 0
	for i < len(lower) {
		for i < len(lower) {
			r, w := utf8.DecodeRuneInString(lower[i:])
			if !isSeparator(r) {
				break
			}
			i += w
		}
		start := i
		for i < len(lower) {
			r, w := utf8.DecodeRuneInString(lower[i:])
			if isSeparator(r) {
				break
			}
			i += w
		}
		if i > start {
			out = append(out, lower[start:i])
		}
	}
	return out
}

// DropStopwords filters English stopwords out of a word token stream, the
// Go equivalent of TfidfVectorizer(stop_words="english").
func DropStopwords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if english.Contains(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// WordNGrams builds contiguous n-grams over tokens for n in [nMin, nMax].
func WordNGrams(tokens []string, nMin, nMax int) []string {
	out := make([]string, 0, len(tokens)*(nMax-nMin+1))
	for n := nMin; n <= nMax; n++ {
		if n <= 0 || n > len(tokens) {
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// CharNGrams builds character n-grams within word boundaries (char_wb):
// each word is padded with a leading/trailing space, matching scikit-learn's
// analyzer="char_wb" so n-grams never span whitespace between words.
func CharNGrams(text string, nMin, nMax int) []string {
	words := Words(text)
	out := make([]string, 0, len(text)*2)
	for _, w := range words {
		padded := " " + w + " "
		runes := []rune(padded)
		for n := nMin; n <= nMax; n++ {
			if n <= 0 || n > len(runes) {
				continue
			}
			for i := 0; i+n <= len(runes); i++ {
				out = append(out, string(runes[i:i+n]))
			}
		}
	}
	return out
}

// Matrix is a fitted TF-IDF model: one L2-normalized row vector per
// document, in a shared vocabulary space.
type Matrix struct {
	vocab map[string]int
	rows  [][]float64
}

// AnalyzerFunc turns one document's text into a token/n-gram stream.
type AnalyzerFunc func(doc string) []string

// Fit builds a TF-IDF matrix over docs using analyzer to tokenize each
// document. Smoothing matches scikit-learn's default:
// idf = ln((1+n)/(1+df)) + 1, followed by L2 row normalization.
func Fit(docs []string, analyzer AnalyzerFunc) *Matrix {
	n := len(docs)
	docTokens := make([][]string, n)
	df := make(map[string]int)
	vocabOrder := make([]string, 0)
	vocab := make(map[string]int)

	for i, doc := range docs {
		toks := analyzer(doc)
		docTokens[i] = toks
		seen := make(map[string]struct{}, len(toks))
		for _, t := range toks {
			if _, ok := vocab[t]; !ok {
				vocab[t] = len(vocabOrder)
				vocabOrder = append(vocabOrder, t)
			}
			seen[t] = struct{}{}
		}
		for t := range seen {
			df[t]++
		}
	}

	idf := make([]float64, len(vocabOrder))
	for t, idx := range vocab {
		idf[idx] = math.Log(float64(1+n)/float64(1+df[t])) + 1
	}

	rows := make([][]float64, n)
	for i, toks := range docTokens {
		tf := make(map[int]float64)
		for _, t := range toks {
			tf[vocab[t]]++
		}
		row := make([]float64, len(vocabOrder))
		var norm float64
		for idx, count := range tf {
			v := count * idf[idx]
			row[idx] = v
			norm += v * v
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for idx := range row {
				row[idx] /= norm
			}
		}
		rows[i] = row
	}

	return &Matrix{vocab: vocab, rows: rows}
}

// Row returns the L2-normalized TF-IDF vector for document i.
func (m *Matrix) Row(i int) []float64 { return m.rows[i] }

// Len returns the number of documents fitted.
func (m *Matrix) Len() int { return len(m.rows) }

// CosineSimilarity computes the cosine similarity of two equal-length
// vectors (0 if either is the zero vector).
func CosineSimilarity(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// CharAnalyzer builds an AnalyzerFunc for char_wb n-grams in [nMin, nMax].
func CharAnalyzer(nMin, nMax int) AnalyzerFunc {
	return func(doc string) []string { return CharNGrams(doc, nMin, nMax) }
}

// WordAnalyzer builds an AnalyzerFunc for word n-grams in [nMin, nMax],
// with English stopwords dropped before n-grams are formed (matching
// scikit-learn, which removes stop words before building n-grams).
func WordAnalyzer(nMin, nMax int) AnalyzerFunc {
	return func(doc string) []string {
		return WordNGrams(DropStopwords(Words(doc)), nMin, nMax)
	}
}
