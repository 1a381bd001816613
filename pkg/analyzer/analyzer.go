package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trazo/pkg/diagram"
	errs "github.com/matzehuels/trazo/pkg/errors"
	"github.com/matzehuels/trazo/pkg/outline"
)

const (
	// DefaultExpansionThreshold is the word count below which a single
	// segment triggers creative expansion.
	DefaultExpansionThreshold = 4

	// DefaultMaxItems caps the number of outline items.
	DefaultMaxItems = 12

	// DefaultMaxLabelRunes is the label length beyond which text is truncated.
	DefaultMaxLabelRunes = 40

	// minKeywordRunes is the minimum length of a word shared by related items.
	minKeywordRunes = 6

	idHashLen = 8
)

// Options configures an [Analyzer]. Zero values select the defaults.
type Options struct {
	ExpansionThreshold int `json:"expansion_threshold,omitempty"`
	MaxItems           int `json:"max_items,omitempty"`
	MaxLabelRunes      int `json:"max_label_runes,omitempty"`

	// DisableExpansion turns creative expansion off entirely.
	DisableExpansion bool `json:"disable_expansion,omitempty"`

	Logger *log.Logger `json:"-"`
}

// SetDefaults fills zero-valued fields with defaults.
func (o *Options) SetDefaults() {
	if o.ExpansionThreshold <= 0 {
		o.ExpansionThreshold = DefaultExpansionThreshold
	}
	if o.MaxItems <= 0 {
		o.MaxItems = DefaultMaxItems
	}
	if o.MaxLabelRunes <= 0 {
		o.MaxLabelRunes = DefaultMaxLabelRunes
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Fingerprint identifies the options that affect analysis output, for use
// in cache keys.
func (o Options) Fingerprint() string {
	return fmt.Sprintf("t%d-m%d-l%d-x%t", o.ExpansionThreshold, o.MaxItems, o.MaxLabelRunes, o.DisableExpansion)
}

// Analyzer converts text into outlines. It is stateless and safe for
// concurrent use.
type Analyzer struct {
	opts   Options
	logger *log.Logger
}

// New creates an Analyzer with the given options.
func New(opts Options) *Analyzer {
	opts.SetDefaults()
	return &Analyzer{opts: opts, logger: opts.Logger}
}

// Options returns the effective options.
func (a *Analyzer) Options() Options { return a.opts }

// Fingerprint returns the fingerprint of the analyzer's options.
func (a *Analyzer) Fingerprint() string { return a.opts.Fingerprint() }

// Analyze segments text into an outline.
//
// The hint is a variant name or menu label; "auto" (or empty) lets the
// analyzer pick the suggested variant from the text. A concrete hint is
// recorded as the suggestion as-is.
//
// Returns an EMPTY_INPUT error when text trims to empty, INVALID_INPUT for
// text that fails validation, and INVALID_VARIANT for an unknown hint.
func (a *Analyzer) Analyze(ctx context.Context, text string, hint string) (outline.Outline, error) {
	if err := errs.ValidateInputText(text); err != nil {
		return outline.Outline{}, err
	}
	variant, err := diagram.ParseVariant(hint)
	if err != nil {
		return outline.Outline{}, err
	}
	if err := ctx.Err(); err != nil {
		return outline.Outline{}, err
	}

	segs, structured, title := segmentText(text)
	if len(segs) == 0 {
		return outline.Outline{}, errs.New(errs.ErrCodeEmptyInput, "no concepts found in the selected text")
	}

	ids := newIDAllocator()
	var out outline.Outline

	if a.shouldExpand(segs) {
		out = a.expand(segs[0].text, ids)
	} else {
		out.Items = make([]outline.Item, 0, len(segs))
		for _, s := range segs {
			out.Items = append(out.Items, a.item(s.text, "", s.depth, ids))
		}
		if len(out.Items) > a.opts.MaxItems {
			a.logger.Debug("outline truncated", "items", len(out.Items), "max", a.opts.MaxItems)
			out.Items = out.Items[:a.opts.MaxItems]
		}
		out.Title = title
		if out.Title == "" {
			out.Title = out.Items[0].Text
		}
		out.Suggested = detectPattern(normalize(text), structured)
	}
	linkRelated(out.Items)

	if variant.IsConcrete() {
		out.Suggested = variant
	}
	if err := out.Validate(); err != nil {
		return outline.Outline{}, errs.Wrap(errs.ErrCodeInternal, err, "analyzer produced an invalid outline")
	}

	a.logger.Debug("analyzed text",
		"items", len(out.Items), "expanded", out.Expanded, "suggested", out.Suggested)
	return out, nil
}

func (a *Analyzer) shouldExpand(segs []segment) bool {
	if a.opts.DisableExpansion || len(segs) != 1 {
		return false
	}
	return len(strings.Fields(segs[0].text)) < a.opts.ExpansionThreshold
}

// expand builds a central item holding the literal term plus synthesized
// children.
func (a *Analyzer) expand(term string, ids *idAllocator) outline.Outline {
	t, ok := lookupTopic(normalize(term))
	if !ok {
		t = genericTopic(term)
	}
	a.logger.Debug("creative expansion", "term", term, "known", ok)

	items := []outline.Item{a.item(term, t.title, 0, ids)}
	for _, c := range t.children {
		items = append(items, a.item(c.text, c.desc, 1, ids))
	}
	return outline.Outline{
		Items:     items,
		Title:     t.title,
		Suggested: diagram.VariantInfographic,
		Expanded:  true,
	}
}

func (a *Analyzer) item(text, desc string, level int, ids *idAllocator) outline.Item {
	norm := normalize(text)
	label := text
	if utf8.RuneCountInString(label) > a.opts.MaxLabelRunes {
		label = string([]rune(label)[:a.opts.MaxLabelRunes]) + "..."
		if desc == "" {
			desc = text
		}
	}
	return outline.Item{
		ID:          ids.next(norm),
		Text:        label,
		Description: desc,
		Level:       level,
		Icon:        iconFor(norm, tokens(norm)),
	}
}

func detectPattern(norm string, hierarchical bool) diagram.Variant {
	switch {
	case containsAny(norm, cycleKeywords):
		return diagram.VariantCycle
	case hierarchical || containsAny(norm, hierarchyKeywords):
		return diagram.VariantMindmap
	default:
		return diagram.VariantFlow
	}
}

// linkRelated records, for each item, the earlier items it shares a
// significant keyword with.
func linkRelated(items []outline.Item) {
	keys := make([]map[string]bool, len(items))
	for i, it := range items {
		keys[i] = make(map[string]bool)
		for _, t := range tokens(normalize(it.Text)) {
			if utf8.RuneCountInString(t) >= minKeywordRunes && !stopWords[t] {
				keys[i][t] = true
			}
		}
	}
	for j := range items {
		for i := 0; i < j; i++ {
			if shares(keys[i], keys[j]) && !slices.Contains(items[j].Related, items[i].ID) {
				items[j].Related = append(items[j].Related, items[i].ID)
			}
		}
	}
}

func shares(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

// idAllocator derives content-based item IDs, suffixing repeated content.
type idAllocator struct {
	seen map[string]int
}

func newIDAllocator() *idAllocator {
	return &idAllocator{seen: make(map[string]int)}
}

func (a *idAllocator) next(norm string) string {
	sum := sha256.Sum256([]byte(norm))
	id := "it-" + hex.EncodeToString(sum[:])[:idHashLen]
	a.seen[id]++
	if n := a.seen[id]; n > 1 {
		return fmt.Sprintf("%s-%d", id, n)
	}
	return id
}

// ItemID returns the ID the analyzer assigns to the first occurrence of text.
func ItemID(text string) string {
	return newIDAllocator().next(normalize(text))
}
