// Package textproc applies deterministic cleanups to raw transcription
// output before it is typed into the focused window.
package textproc

import (
	"regexp"
	"strings"
	"unicode"

	"murmur/config"
)

var (
	spaceRun        = regexp.MustCompile(`\s+`)
	spaceBeforePunc = regexp.MustCompile(`\s+([,.!?;:])`)
	doubledPunc     = regexp.MustCompile(`([,.!?;:])[,;:]+`)
	sentenceStart   = regexp.MustCompile(`([.!?])\s+(\p{Ll})`)
)

// Processor runs the configured transforms in a fixed order: filler
// removal, whitespace normalization, capitalization, punctuation. The
// transforms are pure; processing the same text twice gives the same
// result.
type Processor struct {
	fillers  *regexp.Regexp
	autoCap  bool
	autoPunc bool
}

func New(cfg config.ProcessingConfig) *Processor {
	p := &Processor{
		autoCap:  cfg.AutoCapitalize,
		autoPunc: cfg.AutoPunctuate,
	}
	if cfg.RemoveFillerWords && len(cfg.FillerWords) > 0 {
		p.fillers = fillerPattern(cfg.FillerWords)
	}
	return p
}

// fillerPattern builds a whole-word, case-insensitive alternation. Spaces
// inside a filler ("you know") match any whitespace run so the phrase is
// caught however the engine spaced it.
func fillerPattern(words []string) *regexp.Regexp {
	alts := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		parts := strings.Fields(w)
		for i, part := range parts {
			parts[i] = regexp.QuoteMeta(part)
		}
		alts = append(alts, strings.Join(parts, `\s+`))
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(alts, "|") + `)\b`)
}

func (p *Processor) Process(text string) string {
	if p.fillers != nil {
		text = p.fillers.ReplaceAllString(text, "")
	}

	text = spaceRun.ReplaceAllString(text, " ")
	text = spaceBeforePunc.ReplaceAllString(text, "$1")
	text = doubledPunc.ReplaceAllString(text, "$1")
	text = strings.TrimSpace(text)
	text = strings.TrimLeft(text, ",.;: ")

	if p.autoCap {
		text = capitalize(text)
	}
	if p.autoPunc {
		text = punctuate(text)
	}
	return text
}

// capitalize upcases the first letter and any letter starting a new
// sentence.
func capitalize(text string) string {
	runes := []rune(text)
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			break
		}
		if !unicode.IsSpace(r) && !unicode.IsPunct(r) {
			break
		}
	}
	text = string(runes)
	return sentenceStart.ReplaceAllStringFunc(text, strings.ToUpper)
}

// punctuate terminates the text with a period unless it already ends in
// sentence punctuation.
func punctuate(text string) string {
	if text == "" {
		return text
	}
	switch text[len(text)-1] {
	case '.', '!', '?', ',', ';', ':':
		return text
	}
	return text + "."
}
