// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Doc: {
	name?:  string & !=""
	count?: int & >0
	items?: [...{id: string}]
}
`

func TestDecodeAgainst(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "empty document", data: ""},
		{name: "valid fields", data: `name: "x"` + "\n" + `count: 3`},
		{name: "wrong type", data: `count: "three"`, wantErr: "count"},
		{name: "violated bound", data: `count: 0`, wantErr: "count"},
		{name: "closed definition rejects unknown field", data: `extra: true`, wantErr: "extra"},
		{name: "nested list element", data: `items: [{id: "a"}, {id: 2}]`, wantErr: "items[1].id"},
		{name: "syntax error", data: `name: "unterminated`, wantErr: "doc.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := DecodeAgainst(testSchema, "#Doc", []byte(tt.data), "doc.cue")
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("DecodeAgainst() error = %v", err)
				}
				if out == nil && tt.data != "" {
					t.Fatal("DecodeAgainst() returned nil map")
				}
				return
			}
			if err == nil {
				t.Fatalf("DecodeAgainst() succeeded, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeAgainstMissingDefinition(t *testing.T) {
	t.Parallel()

	_, err := DecodeAgainst(testSchema, "#Missing", nil, "doc.cue")
	if err == nil || !strings.Contains(err.Error(), "#Missing") {
		t.Fatalf("DecodeAgainst() error = %v, want missing definition", err)
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 10), 10, "a.cue"); err != nil {
		t.Errorf("CheckFileSize() at limit = %v", err)
	}
	if err := CheckFileSize(make([]byte, 11), 10, "a.cue"); err == nil {
		t.Error("CheckFileSize() over limit = nil")
	}
}
