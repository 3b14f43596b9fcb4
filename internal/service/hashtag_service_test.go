package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractHashtags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"order and duplicates preserved", "hello #world and #go then #world", []string{"world", "go", "world"}},
		{"case is kept for the registry", "hello #world #World", []string{"world", "World"}},
		{"adjacent tags", "#a#b", []string{"a", "b"}},
		{"punctuation ends a tag", "see #news, #go!", []string{"news", "go"}},
		{"underscores and digits", "#go_1_22", []string{"go_1_22"}},
		{"unicode letters", "#café #日本", []string{"café", "日本"}},
		{"combining mark ends a tag", "#cafe\u0301 bar", []string{"cafe"}},
		{"bare hash", "# alone", []string{}},
		{"no tags", "plain text", []string{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractHashtags(tt.content))
		})
	}
}
