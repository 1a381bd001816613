package diagram

import (
	"strings"
	"unicode/utf8"
)

// MaxLabelRunes bounds the length of a user-edited label.
const MaxLabelRunes = 200

// NodePatch is a partial update of a node's user-editable fields.
// Nil fields are left unchanged.
type NodePatch struct {
	Label       *string `json:"label,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
	Shape       *Shape  `json:"shape,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p NodePatch) Empty() bool {
	return p.Label == nil && p.Description == nil && p.Color == nil && p.Shape == nil
}

// Sanitize drops fields that cannot be applied: labels that are empty after
// trimming, colors that are not "#RRGGBB", and unknown shapes. Labels longer
// than [MaxLabelRunes] are clamped.
func (p NodePatch) Sanitize() NodePatch {
	var out NodePatch
	if p.Label != nil {
		l := strings.TrimSpace(*p.Label)
		if l != "" {
			if utf8.RuneCountInString(l) > MaxLabelRunes {
				l = string([]rune(l)[:MaxLabelRunes])
			}
			out.Label = &l
		}
	}
	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		out.Description = &d
	}
	if p.Color != nil && ValidColor(*p.Color) {
		c := strings.ToUpper(*p.Color)
		out.Color = &c
	}
	if p.Shape != nil && p.Shape.Valid() {
		s := *p.Shape
		out.Shape = &s
	}
	return out
}

// ApplyPatch applies a sanitized patch to the node with the given ID.
// It returns false if the node is missing or nothing was applied.
func (d *Diagram) ApplyPatch(id string, p NodePatch) bool {
	n, ok := d.nodes[id]
	if !ok {
		return false
	}
	p = p.Sanitize()
	if p.Empty() {
		return false
	}
	if p.Label != nil {
		n.Label = *p.Label
		n.Edited = true
	}
	if p.Description != nil {
		n.Description = *p.Description
	}
	if p.Color != nil {
		n.Style.Color = *p.Color
		n.Styled = true
	}
	if p.Shape != nil {
		n.Style.Shape = *p.Shape
		n.Styled = true
	}
	return true
}

// KeepEdits copies user edits from prev onto d: for every node present in
// both, an edited label and a picked style win over d's generated ones.
// Positions are left alone.
func (d *Diagram) KeepEdits(prev *Diagram) {
	if prev == nil {
		return
	}
	for id, n := range d.nodes {
		old, ok := prev.nodes[id]
		if !ok {
			continue
		}
		if old.Edited {
			n.Label = old.Label
			n.Edited = true
		}
		if old.Styled {
			n.Style = old.Style
			n.Styled = true
		}
	}
}

// StringPtr returns a pointer to s. It is a convenience for building patches.
func StringPtr(s string) *string { return &s }

// ShapePtr returns a pointer to s.
func ShapePtr(s Shape) *Shape { return &s }
