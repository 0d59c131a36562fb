package utils

import "strings"

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"*", "\\*",
	"_", "\\_",
	"~", "\\~",
	"`", "\\`",
	"|", "\\|",
	">", "\\>",
)

// EscapeMarkdown escapes Discord markdown control characters.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// CutWords truncates s at a word boundary so the result plus the end marker
// fits in maxLen runes.
func CutWords(s string, maxLen int, end string) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	limit := maxLen - len([]rune(end))
	if limit < 0 {
		limit = 0
	}

	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + end
}

// maxDiffWords caps the quadratic matching; longer messages fall back to a
// plain before/after rendering.
const maxDiffWords = 256

const (
	opEqual  = '='
	opDelete = '-'
	opInsert = '+'
)

type diffSpan struct {
	op    byte
	words []string
}

// DiffWords renders a word-level diff of two message bodies as Discord
// markdown: removed words struck through, inserted words underlined.
func DiffWords(a, b string) string {
	aw := strings.Fields(a)
	bw := strings.Fields(b)

	if len(aw) > maxDiffWords || len(bw) > maxDiffWords {
		return "~~" + EscapeMarkdown(a) + "~~ __" + EscapeMarkdown(b) + "__"
	}

	// Longest common subsequence over words.
	lcs := make([][]int, len(aw)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(bw)+1)
	}
	for i := len(aw) - 1; i >= 0; i-- {
		for j := len(bw) - 1; j >= 0; j-- {
			if aw[i] == bw[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var spans []diffSpan
	add := func(op byte, word string) {
		if n := len(spans); n > 0 && spans[n-1].op == op {
			spans[n-1].words = append(spans[n-1].words, word)
			return
		}
		spans = append(spans, diffSpan{op: op, words: []string{word}})
	}

	i, j := 0, 0
	for i < len(aw) && j < len(bw) {
		switch {
		case aw[i] == bw[j]:
			add(opEqual, aw[i])
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			add(opDelete, aw[i])
			i++
		default:
			add(opInsert, bw[j])
			j++
		}
	}
	for ; i < len(aw); i++ {
		add(opDelete, aw[i])
	}
	for ; j < len(bw); j++ {
		add(opInsert, bw[j])
	}

	parts := make([]string, 0, len(spans))
	for _, s := range spans {
		text := EscapeMarkdown(strings.Join(s.words, " "))
		switch s.op {
		case opDelete:
			parts = append(parts, "~~"+text+"~~")
		case opInsert:
			parts = append(parts, "__"+text+"__")
		default:
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " ")
}
