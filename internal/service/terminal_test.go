package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalClassifier_Defaults(t *testing.T) {
	isTerminal := NewTerminalClassifier(DefaultTerminalPhrases)

	tests := []struct {
		text string
		want bool
	}{
		{"Sorry, no products found", true},
		{"SCRAPING FAILED for walmart", true},
		{"I couldn't interpret that request", true},
		{"Please provide exactly 3 keywords.", true},
		{"Would any of these interest you?", true},
		{"Say the word if you want more options", true},
		{"Goodbye!", true},
		{"Here are some options", false},
		{"Searching walmart for red shoes...", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, isTerminal(tt.text))
		})
	}
}

func TestTerminalClassifier_CustomPhrases(t *testing.T) {
	isTerminal := NewTerminalClassifier([]string{"  All Done ", ""})

	assert.True(t, isTerminal("ok, all done here"))
	assert.False(t, isTerminal("sorry"))
	assert.False(t, isTerminal("anything"))
}
