// FILE: pkg/rag/classifier/greeting.go
// PURPOSE: Short-circuit small talk before it reaches the RAG backend

package classifier

import (
	"math/rand"
	"strings"
)

// Kind is the classification of a user utterance.
type Kind int

const (
	Question Kind = iota
	Greeting
)

func (k Kind) String() string {
	if k == Greeting {
		return "greeting"
	}
	return "question"
}

// maxPrefixWords caps utterances that only start with a greeting phrase.
// "hello there" stays small talk, "hello there are you sure" is a question.
const maxPrefixWords = 4

var greetingPhrases = []string{
	"hi",
	"hello",
	"hey",
	"hiya",
	"howdy",
	"greetings",
	"good morning",
	"good afternoon",
	"good evening",
	"what's up",
	"whats up",
	"sup",
	"yo",
	"thanks",
	"thank you",
}

var greetingReplies = []string{
	"Hello! Upload a document and ask me anything about it.",
	"Hi there! I can answer questions about the documents in this conversation.",
	"Hey! What would you like to know about your documents?",
	"Hello! How can I help you with your documents today?",
}

// Picker returns an index in [0, n).
type Picker func(n int) int

type Classifier struct {
	pick Picker
}

// New builds a classifier. A nil picker selects replies uniformly at random.
func New(pick Picker) *Classifier {
	if pick == nil {
		pick = rand.Intn
	}
	return &Classifier{pick: pick}
}

func (c *Classifier) Classify(text string) Kind {
	return Classify(text)
}

// GreetingReply returns one of the canned greeting replies.
func (c *Classifier) GreetingReply() string {
	return greetingReplies[c.pick(len(greetingReplies))]
}

// Replies lists every canned reply GreetingReply can return.
func Replies() []string {
	return append([]string(nil), greetingReplies...)
}

// Classify is deterministic for a given phrase set.
func Classify(text string) Kind {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Question
	}

	for _, phrase := range greetingPhrases {
		if normalized == phrase {
			return Greeting
		}
	}

	if len(strings.Fields(normalized)) > maxPrefixWords {
		return Question
	}
	for _, phrase := range greetingPhrases {
		if strings.HasPrefix(normalized, phrase+" ") {
			return Greeting
		}
	}
	return Question
}
