package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/semanticarchitectures/multi-agent-collab/channel"
	"github.com/semanticarchitectures/multi-agent-collab/logging"
	"github.com/semanticarchitectures/multi-agent-collab/participant"
)

// FallbackReason explains why a turn was routed to the coordinator.
type FallbackReason string

const (
	// FallbackNone means no fallback happened.
	FallbackNone FallbackReason = ""
	// FallbackUnresolvedRecipient means a directed message named a label no
	// participant carries.
	FallbackUnresolvedRecipient FallbackReason = "unresolved_recipient"
	// FallbackNoResponders means no participant chose to answer.
	FallbackNoResponders FallbackReason = "no_responders"
)

// RegistrationError reports why a participant could not be added.
type RegistrationError struct {
	Label  string
	Reason string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("cannot register participant %q: %s", e.Label, e.Reason)
}

// TurnResult records everything that happened during one turn.
type TurnResult struct {
	// Input is the channel message created from the external input.
	Input channel.Message `json:"input"`
	// Responses are the participant replies, in dispatch order.
	Responses []channel.Message `json:"responses"`
	// Fallback explains coordinator involvement, if any.
	Fallback FallbackReason `json:"fallback,omitempty"`
	// Timestamp is when the turn started.
	Timestamp time.Time `json:"timestamp"`
}

// Options configures an Orchestrator.
type Options struct {
	// MaxParticipants caps registration. Zero or negative means unlimited.
	MaxParticipants int
	// MaxResponses caps how many participants answer a broadcast. Zero or
	// negative means unlimited.
	MaxResponses int
	// ContextSize is how much recent traffic feeds criteria evaluation.
	ContextSize int
	// Logger receives turn-level logs.
	Logger logging.Logger
}

// WithMaxParticipants caps registration.
func WithMaxParticipants(n int) func(*Options) {
	return func(o *Options) { o.MaxParticipants = n }
}

// WithMaxResponses caps broadcast responders per turn.
func WithMaxResponses(n int) func(*Options) {
	return func(o *Options) { o.MaxResponses = n }
}

// WithContextSize sets how much history criteria see.
func WithContextSize(n int) func(*Options) {
	return func(o *Options) { o.ContextSize = n }
}

// WithLogger sets the orchestrator's logger.
func WithLogger(logger logging.Logger) func(*Options) {
	return func(o *Options) { o.Logger = logger }
}

// Orchestrator coordinates turns between registered participants on one
// shared channel. Dispatch within a turn is sequential so every responder
// sees earlier responses from the same turn.
type Orchestrator struct {
	ch           *channel.Channel
	opts         Options
	logger       logging.Logger
	participants []participant.Participant
	byLabel      map[string]participant.Participant
	coordinator  participant.Participant
}

// New creates an orchestrator over the given channel.
func New(ch *channel.Channel, optFns ...func(*Options)) *Orchestrator {
	opts := Options{
		ContextSize: 10,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ContextSize <= 0 {
		opts.ContextSize = 10
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Orchestrator{
		ch:      ch,
		opts:    opts,
		logger:  opts.Logger,
		byLabel: make(map[string]participant.Participant),
	}
}

// Channel returns the shared channel.
func (o *Orchestrator) Channel() *channel.Channel { return o.ch }

// AddParticipant registers a participant. The first coordinator-tagged
// participant becomes the turn fallback target. Labels must be unique up to
// normalization.
func (o *Orchestrator) AddParticipant(p participant.Participant) error {
	if o.opts.MaxParticipants > 0 && len(o.participants) >= o.opts.MaxParticipants {
		return &RegistrationError{
			Label:  p.Label(),
			Reason: fmt.Sprintf("channel is full (%d participants)", o.opts.MaxParticipants),
		}
	}

	key := normalizeLabel(p.Label())
	if key == "" {
		return &RegistrationError{Label: p.Label(), Reason: "empty label"}
	}
	if _, exists := o.byLabel[key]; exists {
		return &RegistrationError{Label: p.Label(), Reason: "label already registered"}
	}

	o.participants = append(o.participants, p)
	o.byLabel[key] = p
	if o.coordinator == nil && p.IsCoordinator() {
		o.coordinator = p
	}

	o.logger.Info("participant registered",
		"label", p.Label(), "coordinator", p.IsCoordinator(), "total", len(o.participants))
	return nil
}

// RemoveParticipant unregisters by label. Removing the coordinator leaves
// the orchestrator without a fallback until another coordinator registers.
func (o *Orchestrator) RemoveParticipant(label string) bool {
	key := normalizeLabel(label)
	p, ok := o.byLabel[key]
	if !ok {
		return false
	}

	delete(o.byLabel, key)
	o.participants = lo.Filter(o.participants, func(q participant.Participant, _ int) bool {
		return q.ID() != p.ID()
	})
	if o.coordinator != nil && o.coordinator.ID() == p.ID() {
		o.coordinator = nil
		for _, q := range o.participants {
			if q.IsCoordinator() {
				o.coordinator = q
				break
			}
		}
	}

	o.logger.Info("participant removed", "label", p.Label(), "total", len(o.participants))
	return true
}

// Participants returns the registered participants in registration order.
func (o *Orchestrator) Participants() []participant.Participant {
	out := make([]participant.Participant, len(o.participants))
	copy(out, o.participants)
	return out
}

// Coordinator returns the current fallback participant, or nil.
func (o *Orchestrator) Coordinator() participant.Participant { return o.coordinator }

// RunTurn appends one external input to the channel and dispatches it.
// Directed messages go to the named participant; unresolved recipients and
// unanswered messages fall back to the coordinator. Broadcasts consult every
// participant's criteria in registration order, capped by MaxResponses.
// A participant error or panic never aborts the turn.
func (o *Orchestrator) RunTurn(ctx context.Context, input string) (TurnResult, error) {
	return o.runTurn(ctx, input, "", channel.KindExternalInput)
}

// RunTurnFrom is RunTurn with an explicit sender label, used when input
// originates from a named operator rather than an anonymous user.
func (o *Orchestrator) RunTurnFrom(ctx context.Context, input, senderLabel string) (TurnResult, error) {
	return o.runTurn(ctx, input, senderLabel, channel.KindExternalInput)
}

func (o *Orchestrator) runTurn(ctx context.Context, input, senderLabel string, kind channel.Kind) (TurnResult, error) {
	if err := ctx.Err(); err != nil {
		return TurnResult{}, err
	}

	start := time.Now()

	// Empty input continues the conversation off the most recent message
	// instead of appending anything.
	var msg channel.Message
	if strings.TrimSpace(input) == "" {
		last, ok := o.ch.Last()
		if !ok {
			return TurnResult{}, fmt.Errorf("empty input on an empty channel")
		}
		msg = last
	} else {
		msg = o.ch.Append("external", input, senderLabel, kind, nil)
	}
	result := TurnResult{Input: msg, Timestamp: start.UTC()}

	responders, fallback := o.selectResponders(msg)
	result.Fallback = fallback

	// The cap counts produced responses, so a failing or silent candidate
	// does not burn a slot.
	for _, p := range responders {
		if o.opts.MaxResponses > 0 && len(result.Responses) >= o.opts.MaxResponses {
			break
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if reply, ok := o.dispatch(ctx, p, msg); ok {
			result.Responses = append(result.Responses, reply)
		}
	}

	// Nobody answered: give the coordinator one chance, unless it was
	// already among the responders.
	if len(result.Responses) == 0 && fallback == FallbackNone && o.coordinator != nil {
		alreadyTried := lo.ContainsBy(responders, func(p participant.Participant) bool {
			return p.ID() == o.coordinator.ID()
		})
		if !alreadyTried {
			result.Fallback = FallbackNoResponders
			if reply, ok := o.dispatch(ctx, o.coordinator, msg); ok {
				result.Responses = append(result.Responses, reply)
			}
		}
	}

	o.logger.Info("turn complete",
		"responders", len(result.Responses),
		"fallback", string(result.Fallback),
		"duration", time.Since(start))
	return result, nil
}

// selectResponders picks who answers the message and whether coordinator
// fallback applied during selection.
func (o *Orchestrator) selectResponders(msg channel.Message) ([]participant.Participant, FallbackReason) {
	if msg.RecipientLabel != "" && !msg.IsBroadcast() {
		if p, ok := o.byLabel[normalizeLabel(msg.RecipientLabel)]; ok {
			return []participant.Participant{p}, FallbackNone
		}
		o.logger.Warn("recipient not found", "recipient", msg.RecipientLabel)
		if o.coordinator != nil {
			return []participant.Participant{o.coordinator}, FallbackUnresolvedRecipient
		}
		return nil, FallbackUnresolvedRecipient
	}

	recent := o.ch.Recent(o.opts.ContextSize)
	var responders []participant.Participant
	for _, p := range o.participants {
		if p.ID() == msg.SenderID {
			continue
		}
		if !p.ShouldRespond(recent) {
			continue
		}
		responders = append(responders, p)
	}
	return responders, FallbackNone
}

// dispatch runs one participant's Respond with error and panic isolation.
// The reply, when non-empty, is appended to the channel.
func (o *Orchestrator) dispatch(ctx context.Context, p participant.Participant, incoming channel.Message) (reply channel.Message, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("participant panicked", "label", p.Label(), "panic", r)
			ok = false
		}
	}()

	text, err := p.Respond(ctx, o.ch, incoming)
	if err != nil {
		o.logger.Error("participant failed", "label", p.Label(), "error", err)
		return channel.Message{}, false
	}
	if strings.TrimSpace(text) == "" {
		return channel.Message{}, false
	}

	reply = o.ch.Append(p.ID(), text, p.Label(), channel.KindParticipant, nil)
	return reply, true
}

// normalizeLabel lowers case and treats underscores and hyphens as spaces so
// "north-ridge", "North_Ridge" and "north ridge" address the same
// participant.
func normalizeLabel(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
