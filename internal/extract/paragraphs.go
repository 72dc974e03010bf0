package extract

import "strings"

// DefaultParagraphWords is the target paragraph size, in words, used when
// splitting extracted page text into retrieval-sized units.
const DefaultParagraphWords = 200

// SplitParagraphs splits plain text into paragraphs of roughly targetWords
// words each. Blank-line boundaries are respected first; short paragraphs
// are accumulated up to the target, and paragraphs longer than the target
// are split again at sentence boundaries. The output is deterministic for
// a given input.
func SplitParagraphs(text string, targetWords int) []string {
	if targetWords <= 0 {
		targetWords = DefaultParagraphWords
	}

	var out []string
	var buf []string
	bufWords := 0

	flush := func() {
		if len(buf) > 0 {
			out = append(out, strings.Join(buf, "\n"))
			buf = nil
			bufWords = 0
		}
	}

	for _, para := range splitBlankLines(text) {
		words := len(strings.Fields(para))
		switch {
		case words > targetWords:
			flush()
			out = append(out, splitLongParagraph(para, targetWords)...)
		case bufWords+words > targetWords && bufWords > 0:
			flush()
			buf = append(buf, para)
			bufWords = words
		default:
			buf = append(buf, para)
			bufWords += words
		}
	}
	flush()
	return out
}

// splitLongParagraph breaks one oversized paragraph at sentence boundaries,
// accumulating sentences until the word target is reached. A single sentence
// longer than the target is hard-split on word boundaries.
func splitLongParagraph(para string, targetWords int) []string {
	var out []string
	var buf []string
	bufWords := 0

	flush := func() {
		if len(buf) > 0 {
			out = append(out, strings.Join(buf, " "))
			buf = nil
			bufWords = 0
		}
	}

	for _, sentence := range splitSentences(para) {
		words := strings.Fields(sentence)
		if len(words) > targetWords {
			flush()
			for start := 0; start < len(words); start += targetWords {
				end := start + targetWords
				if end > len(words) {
					end = len(words)
				}
				out = append(out, strings.Join(words[start:end], " "))
			}
			continue
		}
		if bufWords+len(words) > targetWords && bufWords > 0 {
			flush()
		}
		buf = append(buf, sentence)
		bufWords += len(words)
	}
	flush()
	return out
}

// splitSentences splits text after sentence-final punctuation followed by
// whitespace. It is intentionally simple; the paragraph splitter only needs
// plausible break points, not linguistic accuracy.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			end := i + 1
			if end < len(runes) && (runes[end] == ' ' || runes[end] == '\n' || runes[end] == '\t') {
				s := strings.TrimSpace(string(runes[start:end]))
				if s != "" {
					sentences = append(sentences, s)
				}
				start = end
			}
		}
	}
	tail := strings.TrimSpace(string(runes[start:]))
	if tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
