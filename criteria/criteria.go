package criteria

import (
	"strings"

	"github.com/semanticarchitectures/multi-agent-collab/channel"
)

// Criteria decides whether the participant identified by (id, label) should
// respond given the recent messages, newest last.
type Criteria interface {
	ShouldRespond(id, label string, recent []channel.Message) bool
}

// last returns the newest message unless it was authored by the evaluator,
// in which case no response is ever warranted.
func last(id string, recent []channel.Message) (channel.Message, bool) {
	if len(recent) == 0 {
		return channel.Message{}, false
	}
	msg := recent[len(recent)-1]
	if msg.SenderID == id {
		return channel.Message{}, false
	}
	return msg, true
}

// DirectAddress responds when the last message is addressed to the
// participant's label (broadcasts included).
type DirectAddress struct{}

// ShouldRespond implements Criteria.
func (DirectAddress) ShouldRespond(id, label string, recent []channel.Message) bool {
	msg, ok := last(id, recent)
	if !ok {
		return false
	}
	return msg.IsAddressedTo(label)
}

// Keyword responds when any configured keyword occurs in the last message
// body.
type Keyword struct {
	Keywords      []string
	CaseSensitive bool
}

// NewKeyword constructs a case-insensitive keyword criteria.
func NewKeyword(keywords ...string) Keyword {
	return Keyword{Keywords: keywords}
}

// ShouldRespond implements Criteria.
func (k Keyword) ShouldRespond(id, label string, recent []channel.Message) bool {
	msg, ok := last(id, recent)
	if !ok {
		return false
	}

	body := msg.Body
	if !k.CaseSensitive {
		body = strings.ToLower(body)
	}
	for _, kw := range k.Keywords {
		if !k.CaseSensitive {
			kw = strings.ToLower(kw)
		}
		if strings.Contains(body, kw) {
			return true
		}
	}
	return false
}

// Question responds when the last message contains a question mark.
type Question struct{}

// ShouldRespond implements Criteria.
func (Question) ShouldRespond(id, label string, recent []channel.Message) bool {
	msg, ok := last(id, recent)
	if !ok {
		return false
	}
	return strings.Contains(msg.Body, "?")
}

// DefaultCoordinationKeywords trigger coordinator intervention.
var DefaultCoordinationKeywords = []string{"help", "stuck", "unclear", "coordinate", "organize", "plan"}

// Coordinator responds when directly addressed, when a coordination keyword
// appears, or when a question has no explicit recipient.
type Coordinator struct {
	CoordinationKeywords []string
}

// NewCoordinator constructs a Coordinator criteria with the default keyword set.
func NewCoordinator() Coordinator {
	return Coordinator{CoordinationKeywords: DefaultCoordinationKeywords}
}

// ShouldRespond implements Criteria.
func (c Coordinator) ShouldRespond(id, label string, recent []channel.Message) bool {
	msg, ok := last(id, recent)
	if !ok {
		return false
	}

	if msg.IsAddressedTo(label) {
		return true
	}

	keywords := c.CoordinationKeywords
	if len(keywords) == 0 {
		keywords = DefaultCoordinationKeywords
	}
	lower := strings.ToLower(msg.Body)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	return strings.Contains(msg.Body, "?") && msg.RecipientLabel == ""
}

// Composite is the logical OR over a list of criteria. An empty list never
// responds.
type Composite struct {
	Criteria []Criteria
}

// Any combines criteria with OR logic.
func Any(cs ...Criteria) Composite {
	return Composite{Criteria: cs}
}

// ShouldRespond implements Criteria.
func (c Composite) ShouldRespond(id, label string, recent []channel.Message) bool {
	for _, crit := range c.Criteria {
		if crit.ShouldRespond(id, label, recent) {
			return true
		}
	}
	return false
}
