package errors

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxInputRunes bounds the text accepted by the generation pipeline.
const MaxInputRunes = 20000

// ValidateWorkspaceID validates a workspace identifier before it is used as a
// blob key, file name or URL segment.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - Maximum length of 128 characters
//   - Letters, digits, '-', '_' and '.' only
//   - No path traversal sequences (..)
func ValidateWorkspaceID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidWorkspace, "workspace id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidWorkspace, "workspace id too long (max 128 characters)")
	}
	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidWorkspace, "workspace id cannot contain path traversal sequences (..)")
	}
	if !workspaceIDRegex.MatchString(id) {
		return New(ErrCodeInvalidWorkspace, "invalid workspace id: %q", id)
	}
	return nil
}

var workspaceIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateInputText checks text selected in the editor before analysis.
// Empty (whitespace-only) text is an EMPTY_INPUT error; oversized text or
// text with NUL bytes is INVALID_INPUT.
func ValidateInputText(text string) error {
	if strings.TrimSpace(text) == "" {
		return New(ErrCodeEmptyInput, "select some text to generate a diagram")
	}
	if !utf8.ValidString(text) {
		return New(ErrCodeInvalidInput, "text is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(text); n > MaxInputRunes {
		return New(ErrCodeInvalidInput, "text too long (%d characters, max %d)", n, MaxInputRunes)
	}
	for _, r := range text {
		if r == '\x00' || (unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t') {
			return New(ErrCodeInvalidInput, "text contains invalid control characters")
		}
	}
	return nil
}
