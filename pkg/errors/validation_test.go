package errors

import (
	"strings"
	"testing"
)

func TestValidateWorkspaceID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "notes", false},
		{"valid with dash", "my-notes", false},
		{"valid with underscore", "my_notes", false},
		{"valid with dot", "page.1", false},
		{"valid uuid", "3f0b6c1e-6d7a-4d1c-9a4e-2d4f8f7f9b10", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 129), true},
		{"path traversal", "a..b", true},
		{"slash", "foo/bar", true},
		{"leading dot", ".hidden", true},
		{"space", "foo bar", true},
		{"null byte", "foo\x00bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWorkspaceID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWorkspaceID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidWorkspace) {
				t.Errorf("ValidateWorkspaceID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidWorkspace)
			}
		})
	}
}

func TestValidateInputText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  Code
	}{
		{"valid", "Planificación.\nDesarrollo.", ""},
		{"tabs allowed", "a\tb", ""},
		{"empty", "", ErrCodeEmptyInput},
		{"whitespace", "  \n\t ", ErrCodeEmptyInput},
		{"too long", strings.Repeat("x", MaxInputRunes+1), ErrCodeInvalidInput},
		{"null byte", "foo\x00bar", ErrCodeInvalidInput},
		{"invalid utf8", "foo\xffbar", ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputText(tt.input)
			if got := GetCode(err); got != tt.code {
				t.Errorf("ValidateInputText() code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}
