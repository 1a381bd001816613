// Package outline defines the structured content extracted from free text
// by the analyzer and consumed by the layout engine.
//
// An [Outline] is an ordered list of [Item] values. Each item carries a
// nesting level; an item's parent is the nearest preceding item exactly one
// level up. Item IDs are derived from content, so they survive edits to
// other lines of the source text.
package outline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/trazo/pkg/diagram"
)

var (
	// ErrEmptyOutline is returned by [Outline.Validate] for an outline with no items.
	ErrEmptyOutline = errors.New("outline has no items")

	// ErrDuplicateItemID is returned when two items share an ID.
	ErrDuplicateItemID = errors.New("duplicate item ID")

	// ErrLevelJump is returned when an item's level is more than one deeper
	// than its predecessor, or the first item is not at level 0.
	ErrLevelJump = errors.New("item level jumps by more than one")

	// ErrBadRelation is returned when Related references a missing item or
	// the item itself.
	ErrBadRelation = errors.New("invalid related item")
)

// Item is one concept of the outline.
type Item struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Description string   `json:"description,omitempty"`
	Level       int      `json:"level"`
	Related     []string `json:"related,omitempty"`
	Icon        string   `json:"icon,omitempty"`
}

// Outline is the ordered content extracted from one piece of text.
type Outline struct {
	Items     []Item          `json:"items"`
	Title     string          `json:"title,omitempty"`
	Suggested diagram.Variant `json:"suggested"`
	// Expanded is set when items were synthesized from a short input.
	Expanded bool `json:"expanded,omitempty"`
}

// Len returns the number of items.
func (o Outline) Len() int { return len(o.Items) }

// Validate checks that the outline is non-empty, item IDs are unique, levels
// start at 0 and never increase by more than one, and relations reference
// other existing items.
func (o Outline) Validate() error {
	if len(o.Items) == 0 {
		return ErrEmptyOutline
	}
	seen := make(map[string]bool, len(o.Items))
	prev := -1
	for _, it := range o.Items {
		if it.ID == "" || seen[it.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateItemID, it.ID)
		}
		seen[it.ID] = true
		if it.Level < 0 || it.Level > prev+1 {
			return fmt.Errorf("%w: %s at level %d after %d", ErrLevelJump, it.ID, it.Level, prev)
		}
		prev = it.Level
	}
	for _, it := range o.Items {
		for _, r := range it.Related {
			if r == it.ID || !seen[r] {
				return fmt.Errorf("%w: %s -> %s", ErrBadRelation, it.ID, r)
			}
		}
	}
	return nil
}

// Index returns the position of the item with the given ID, or -1.
func (o Outline) Index(id string) int {
	return slices.IndexFunc(o.Items, func(it Item) bool { return it.ID == id })
}

// Parent returns the index of the item's parent, or -1 for a root.
func (o Outline) Parent(i int) int {
	lvl := o.Items[i].Level
	for j := i - 1; j >= 0; j-- {
		if o.Items[j].Level == lvl-1 {
			return j
		}
		if o.Items[j].Level < lvl-1 {
			break
		}
	}
	return -1
}

// Children returns the indices of the item's direct children in order.
func (o Outline) Children(i int) []int {
	var out []int
	lvl := o.Items[i].Level
	for j := i + 1; j < len(o.Items) && o.Items[j].Level > lvl; j++ {
		if o.Items[j].Level == lvl+1 {
			out = append(out, j)
		}
	}
	return out
}

// Roots returns the indices of all level-0 items.
func (o Outline) Roots() []int {
	var out []int
	for i, it := range o.Items {
		if it.Level == 0 {
			out = append(out, i)
		}
	}
	return out
}

// Flat reports whether every item is at level 0.
func (o Outline) Flat() bool {
	for _, it := range o.Items {
		if it.Level != 0 {
			return false
		}
	}
	return true
}

// Leaves returns the number of leaf descendants of item i (1 for a leaf).
func (o Outline) Leaves(i int) int {
	kids := o.Children(i)
	if len(kids) == 0 {
		return 1
	}
	n := 0
	for _, k := range kids {
		n += o.Leaves(k)
	}
	return n
}

// Hash returns a stable content hash of the outline, used as a cache key
// component by the layout stage.
func (o Outline) Hash() string {
	data, _ := json.Marshal(o)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
