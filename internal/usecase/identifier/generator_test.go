package identifier

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePrefix(t *testing.T) {
	tests := []struct {
		classification string
		want           string
	}{
		{"Violin", "VI"},
		{"4/4 VIOLIN", "VI"},
		{"바이올린", "VI"},
		{"Viola", "VA"},
		{"비올라", "VA"},
		{"Cello", "VC"},
		{"Violoncello", "VC"},
		{"첼로", "VC"},
		{"Double Bass", "DB"},
		{"Contrabass", "DB"},
		{"콘트라베이스", "DB"},
		{"Cello Bow", "VC"},
		{"Bow", "BO"},
		{"활", "BO"},
		{"Rosin", DefaultPrefix},
		{"", DefaultPrefix},
		{"   ", DefaultPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.classification, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePrefix(tt.classification))
		})
	}
}

func TestNext(t *testing.T) {
	t.Run("continues the highest ordinal for the prefix", func(t *testing.T) {
		assert.Equal(t, "VI003", Next("Violin", []string{"VI001", "VI002", "BO005"}))
	})

	t.Run("starts at 001 when no identifier shares the prefix", func(t *testing.T) {
		assert.Equal(t, "VI001", Next("Violin", []string{"BO005", "VC010"}))
		assert.Equal(t, "VI001", Next("Violin", nil))
	})

	t.Run("prefix match is case-insensitive", func(t *testing.T) {
		assert.Equal(t, "VI008", Next("violin", []string{"vi007", " VI002 "}))
	})

	t.Run("uses the trailing digit run only", func(t *testing.T) {
		assert.Equal(t, "VI013", Next("Violin", []string{"VI2023X012", "VIX"}))
	})

	t.Run("width grows past 999 without truncation", func(t *testing.T) {
		existing := make([]string, 0, 999)
		for i := 1; i <= 999; i++ {
			existing = append(existing, fmt.Sprintf("VI%03d", i))
		}
		assert.Equal(t, "VI1000", Next("Violin", existing))
	})

	t.Run("client numbers use the fixed prefix", func(t *testing.T) {
		assert.Equal(t, "CL004", NextWithPrefix(ClientPrefix, []string{"CL001", "CL003"}))
	})
}

func TestValidate(t *testing.T) {
	existing := []string{"VI001", "VI003", "BO005"}

	tests := []struct {
		name      string
		candidate string
		current   string
		wantValid bool
		wantError string
	}{
		{
			name:      "Blank candidate is valid",
			candidate: "",
			wantValid: true,
		},
		{
			name:      "Whitespace candidate is valid",
			candidate: "   ",
			wantValid: true,
		},
		{
			name:      "Unused identifier is valid",
			candidate: "VI004",
			wantValid: true,
		},
		{
			name:      "Case-insensitive duplicate is invalid",
			candidate: "vi003",
			current:   "VI001",
			wantValid: false,
			wantError: "identifier VI003 is already in use",
		},
		{
			name:      "Own identifier is not a conflict",
			candidate: "vi003",
			current:   "VI003",
			wantValid: true,
		},
		{
			name:      "Disallowed character is invalid",
			candidate: "AB#1",
			wantValid: false,
			wantError: "identifier must be 1-20 characters using only A-Z and 0-9",
		},
		{
			name:      "Too long is invalid",
			candidate: "ABCDEFGHIJKLMNOPQRSTU",
			wantValid: false,
			wantError: "identifier must be 1-20 characters using only A-Z and 0-9",
		},
		{
			name:      "Lower case is normalized before matching the pattern",
			candidate: " ab12 ",
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.candidate, existing, tt.current)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Equal(t, tt.wantError, got.Error)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "VI001", Normalize("  vi001 "))
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("\t"))
}
