// Package analyzer turns free-form text into a content outline.
//
// # Segmentation
//
// Non-empty lines are the primary concept delimiters. Within a line,
// sentence punctuation (". ! ? ;" followed by a space or the end of the
// line) splits further. Markdown headings ("#", "##", ...) and list markers
// ("-", "*", "•", "1.") are stripped from the text and used as nesting hints:
//
//	# Energía           -> level 0
//	Tipos de energía:   -> level 1
//	  - Solar           -> level 2
//	  - Eólica          -> level 2
//
// Text without such hints produces a flat outline (every item at level 0).
//
// # Creative Expansion
//
// A single short segment (fewer words than [Options.ExpansionThreshold])
// would otherwise produce a one-node diagram. Instead the analyzer keeps the
// literal text as a central item and synthesizes descriptive children from
// a small built-in knowledge base, or from a generic template when no entry
// matches. Expanded outlines suggest [diagram.VariantInfographic].
//
// # Identity
//
// Item IDs are derived from the normalized item text ("it-" plus a short
// SHA-256 prefix). Analyzing the same text twice yields the same IDs, and
// an unchanged line keeps its ID when other lines are edited.
package analyzer
