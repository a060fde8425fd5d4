package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Kind
	}{
		{name: "exact phrase", text: "hello", want: Greeting},
		{name: "mixed case with padding", text: "  Hello There  ", want: Greeting},
		{name: "prefix with space", text: "Hello there", want: Greeting},
		{name: "multi word phrase", text: "Good morning", want: Greeting},
		{name: "long utterance after greeting", text: "hello there are you sure", want: Question},
		{name: "greeting mid string", text: "well hello", want: Question},
		{name: "phrase glued to word", text: "hiking trails near me", want: Question},
		{name: "prefix without space", text: "hellothere", want: Question},
		{name: "real question", text: "What is X?", want: Question},
		{name: "empty", text: "   ", want: Question},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestGreetingReplyUsesPicker(t *testing.T) {
	c := New(func(n int) int { return 0 })
	assert.Equal(t, greetingReplies[0], c.GreetingReply())
}

func TestGreetingReplyDefaultPicker(t *testing.T) {
	c := New(nil)
	for i := 0; i < 20; i++ {
		assert.Contains(t, Replies(), c.GreetingReply())
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "greeting", Greeting.String())
	assert.Equal(t, "question", Question.String())
}
