package analyzer

import (
	"regexp"
	"strings"
	"unicode"
)

type lineKind int

const (
	linePlain lineKind = iota
	lineHeading
	lineList
)

// segment is one concept unit extracted from the text, before IDs are assigned.
type segment struct {
	text  string
	depth int
}

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	listRe     = regexp.MustCompile(`^(?:[-*•+]|\d+[.)])\s+(.*)$`)
	sentenceRe = regexp.MustCompile(`[.!?;]+(?:\s+|$)`)
)

// classify strips heading or list markup from a line and reports its kind,
// heading depth and indentation units (two spaces or one tab each).
func classify(line string) (kind lineKind, text string, depth, indent int) {
	trimmed := strings.TrimLeft(line, " \t")
	for _, r := range line[:len(line)-len(trimmed)] {
		if r == '\t' {
			indent += 2
		} else {
			indent++
		}
	}
	indent /= 2
	trimmed = strings.TrimSpace(trimmed)

	if m := headingRe.FindStringSubmatch(trimmed); m != nil {
		return lineHeading, m[2], len(m[1]) - 1, 0
	}
	if m := listRe.FindStringSubmatch(trimmed); m != nil {
		return lineList, m[1], 0, indent
	}
	return linePlain, trimmed, 0, 0
}

// splitSentences splits text at sentence punctuation followed by whitespace
// or end of text. Decimal numbers such as "3.5" are left intact.
func splitSentences(text string) []string {
	var out []string
	for _, p := range sentenceRe.Split(text, -1) {
		p = strings.TrimSpace(strings.TrimRight(p, ":,"))
		if hasWordChar(p) {
			out = append(out, p)
		}
	}
	return out
}

func hasWordChar(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// segmentText splits text into concept segments with normalized depths:
// the first segment is at depth 0 and no segment is more than one deeper
// than its predecessor. It also reports whether any heading or list markup
// was seen, and returns the first heading as a title.
func segmentText(text string) (segs []segment, structured bool, title string) {
	ctx := -1     // depth of the latest heading or plain line
	heading := -1 // depth of the latest heading
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		kind, body, hdepth, indent := classify(raw)
		var depth int
		switch kind {
		case lineHeading:
			depth = hdepth
			heading, ctx = depth, depth
			structured = true
			if title == "" {
				title = strings.TrimSpace(body)
			}
		case lineList:
			depth = ctx + 1 + indent
			structured = true
		default:
			depth = heading + 1
			ctx = depth
		}
		parts := []string{strings.TrimSpace(body)}
		if kind != lineHeading {
			parts = splitSentences(body)
		}
		for _, p := range parts {
			if hasWordChar(p) {
				segs = append(segs, segment{text: p, depth: depth})
			}
		}
	}

	prev := -1
	for i := range segs {
		if segs[i].depth > prev+1 {
			segs[i].depth = prev + 1
		}
		if segs[i].depth < 0 {
			segs[i].depth = 0
		}
		prev = segs[i].depth
	}
	return segs, structured, title
}

// normalize lowercases text and collapses whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// tokens splits normalized text into words, dropping punctuation.
func tokens(norm string) []string {
	return strings.FieldsFunc(norm, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
