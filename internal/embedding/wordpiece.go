package embedding

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxWordRunes = 100

// WordPieceTokenizer implements the uncased BERT tokenizer: lowercase, strip
// accents, split on whitespace and punctuation, then greedy longest-match
// against a vocabulary with "##" continuation pieces.
type WordPieceTokenizer struct {
	vocab map[string]int64
	cls   int64
	sep   int64
	unk   int64
	pad   int64
}

// LoadWordPieceTokenizer reads a vocab.txt with one token per line; the line number is the token ID.
func LoadWordPieceTokenizer(path string) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(f)
	var id int64
	for scanner.Scan() {
		tok := strings.TrimRight(scanner.Text(), "\r")
		if tok != "" {
			if _, dup := vocab[tok]; !dup {
				vocab[tok] = id
			}
		}
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	return NewWordPieceTokenizer(vocab)
}

// NewWordPieceTokenizer builds a tokenizer over vocab.
func NewWordPieceTokenizer(vocab map[string]int64) (*WordPieceTokenizer, error) {
	if len(vocab) == 0 {
		return nil, fmt.Errorf("empty vocabulary")
	}
	lookup := func(tok string, fallback int64) int64 {
		if id, ok := vocab[tok]; ok {
			return id
		}
		return fallback
	}
	return &WordPieceTokenizer{
		vocab: vocab,
		cls:   lookup("[CLS]", clsTokenID),
		sep:   lookup("[SEP]", sepTokenID),
		unk:   lookup("[UNK]", unkTokenID),
		pad:   lookup("[PAD]", padTokenID),
	}, nil
}

// Tokenize returns padded model inputs for text.
func (t *WordPieceTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	var ids []int64
	for _, word := range basicTokens(text) {
		ids = append(ids, t.wordPiece(word)...)
	}
	return pack(ids, maxTokens, t.cls, t.sep, t.pad)
}

// Pieces returns the wordpiece strings of text, for inspection.
func (t *WordPieceTokenizer) Pieces(text string) []string {
	rev := make(map[int64]string, len(t.vocab))
	for tok, id := range t.vocab {
		rev[id] = tok
	}
	var out []string
	for _, word := range basicTokens(text) {
		for _, id := range t.wordPiece(word) {
			out = append(out, rev[id])
		}
	}
	return out
}

func (t *WordPieceTokenizer) wordPiece(word string) []int64 {
	runes := []rune(word)
	if len(runes) > maxWordRunes {
		return []int64{t.unk}
	}
	var ids []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		found := int64(-1)
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab[piece]; ok {
				found = id
				break
			}
			end--
		}
		if found < 0 {
			return []int64{t.unk}
		}
		ids = append(ids, found)
		start = end
	}
	return ids
}

// basicTokens lowercases, strips accents and splits text on whitespace and punctuation.
func basicTokens(text string) []string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.ToLower(text)) {
		switch {
		case unicode.Is(unicode.Mn, r):
		case unicode.IsControl(r) && !unicode.IsSpace(r):
		case isPunct(r):
			b.WriteRune(' ')
			b.WriteRune(r)
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Fields(b.String())
}

func isPunct(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
