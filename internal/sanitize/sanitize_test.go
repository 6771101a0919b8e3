package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"passthrough", "hello there", "hello there"},
		{"trims whitespace", "  hi  \n", "hi"},
		{"strips conversation label", "CONVERSATION: hi", "hi"},
		{"keeps text after natural response marker",
			"Blah blah. Here's a natural response: sure, done!",
			"sure, done!"},
		{"uses last natural response marker",
			"Here's a natural response: no. Here's a natural response: yes.",
			"yes."},
		{"drops rationale before last blank line",
			"Therefore, X.\n\nFinal answer.",
			"Final answer."},
		{"phase marker drops leading rationale",
			"[Phase 1] classifying intent\n\nOpening the calculator now.",
			"Opening the calculator now."},
		{"marker without blank line passes through",
			"Therefore, the answer is 4.",
			"Therefore, the answer is 4."},
		{"label then rationale",
			"CONVERSATION: To classify this request\n\nHi!",
			"Hi!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}
