package channel

import (
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/semanticarchitectures/multi-agent-collab/logging"
)

// DefaultMaxHistory bounds the log when no explicit limit is configured.
const DefaultMaxHistory = 1000

// Channel is the append-only, bounded, ordered message log shared by all
// participants. Message order equals append order; trimming evicts
// oldest-first once the history bound is exceeded.
type Channel struct {
	mu         sync.RWMutex
	messages   []Message
	maxHistory int
	logger     logging.Logger
}

// Options configures a Channel.
type Options struct {
	// MaxHistory is the maximum number of retained messages.
	MaxHistory int
	// Logger receives append/trim events. Nil means no logging.
	Logger logging.Logger
}

// New constructs an empty channel.
func New(optFns ...func(o *Options)) *Channel {
	opts := Options{MaxHistory: DefaultMaxHistory}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = DefaultMaxHistory
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Channel{
		maxHistory: opts.MaxHistory,
		logger:     opts.Logger,
	}
}

// Append parses the body for addressing, stores the resulting message and
// trims the log to the configured bound. The stored message is returned.
func (c *Channel) Append(senderID, body, senderLabel string, kind Kind, metadata map[string]any) Message {
	msg := NewMessage(senderID, body, senderLabel, kind, metadata)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msg)
	if overflow := len(c.messages) - c.maxHistory; overflow > 0 {
		c.messages = c.messages[overflow:]
		c.logger.Debug("channel.trimmed", "evicted", overflow, "max_history", c.maxHistory)
	}

	c.logger.Debug("channel.append",
		"message_id", msg.ID, "sender", msg.SenderID, "recipient", msg.RecipientLabel, "kind", string(kind))

	return msg
}

// Recent returns the most recent n messages in chronological order. It
// returns an empty slice when the channel is empty.
func (c *Channel) Recent(n int) []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n <= 0 || len(c.messages) == 0 {
		return nil
	}
	if n > len(c.messages) {
		n = len(c.messages)
	}
	out := make([]Message, n)
	copy(out, c.messages[len(c.messages)-n:])
	return out
}

// Last returns the most recent message, if any.
func (c *Channel) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// ContextWindow returns the tail of the log a participant should reason over:
// at most size messages, restricted to timeWindow when one is given
// (timeWindow <= 0 disables time filtering).
func (c *Channel) ContextWindow(label string, size int, timeWindow time.Duration) []Message {
	_ = label // context windows are currently uniform across participants

	c.mu.RLock()
	defer c.mu.RUnlock()

	msgs := c.messages
	if timeWindow > 0 {
		cutoff := time.Now().UTC().Add(-timeWindow)
		msgs = lo.Filter(msgs, func(m Message, _ int) bool {
			return m.Timestamp.After(cutoff)
		})
	}

	if size > 0 && len(msgs) > size {
		msgs = msgs[len(msgs)-size:]
	}

	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// RelevantTo walks the history newest-first collecting messages addressed to,
// sent by, or (optionally) broadcast to the labeled participant, plus system
// messages, stopping once count messages are collected. The result is in
// chronological order.
func (c *Channel) RelevantTo(label string, count int, includeBroadcasts bool) []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var collected []Message
	for i := len(c.messages) - 1; i >= 0 && len(collected) < count; i-- {
		msg := c.messages[i]
		// The sent-by case comes first so a participant's own broadcasts
		// survive includeBroadcasts=false.
		switch {
		case strings.EqualFold(msg.SenderLabel, label):
			collected = append(collected, msg)
		case msg.IsBroadcast():
			if includeBroadcasts {
				collected = append(collected, msg)
			}
		case msg.IsAddressedTo(label):
			collected = append(collected, msg)
		case msg.Kind == KindSystem:
			collected = append(collected, msg)
		}
	}

	return lo.Reverse(collected)
}

// MessagesSince returns all messages appended after the given timestamp.
func (c *Channel) MessagesSince(t time.Time) []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Filter(c.messages, func(m Message, _ int) bool {
		return m.Timestamp.After(t)
	})
}

// Snapshot returns a copy of the full message sequence, oldest first. It is
// the read surface external persistence components build on.
func (c *Channel) Snapshot() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of retained messages.
func (c *Channel) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Clear drops all messages.
func (c *Channel) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// Restore replaces the channel contents with a previously captured message
// sequence, preserving ids and timestamps. History trimming still applies.
func (c *Channel) Restore(messages []Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = make([]Message, len(messages))
	copy(c.messages, messages)
	if len(c.messages) > c.maxHistory {
		c.messages = c.messages[len(c.messages)-c.maxHistory:]
	}
}

// FormatHistory renders the most recent count messages as a transcript.
func (c *Channel) FormatHistory(count int) string {
	recent := c.Recent(count)
	if len(recent) == 0 {
		return "No messages in channel."
	}
	lines := lo.Map(recent, func(m Message, _ int) string {
		return m.FormatForDisplay()
	})
	return strings.Join(lines, "\n")
}
