package participant

import (
	"context"

	"github.com/google/uuid"

	"github.com/semanticarchitectures/multi-agent-collab/channel"
	"github.com/semanticarchitectures/multi-agent-collab/criteria"
	"github.com/semanticarchitectures/multi-agent-collab/logging"
)

// Participant is an agent on a shared channel. The orchestrator consults
// ShouldRespond to select speakers and calls Respond to produce a reply.
type Participant interface {
	// ID returns the stable unique identifier.
	ID() string
	// Label returns the human-readable call sign used in addressing.
	Label() string
	// IsCoordinator reports whether this participant carries the
	// coordinator tag.
	IsCoordinator() bool
	// IsFallback reports whether this participant answers messages nobody
	// else picked up.
	IsFallback() bool
	// ShouldRespond evaluates the participant's speaking criteria against
	// recent channel traffic.
	ShouldRespond(recent []channel.Message) bool
	// Respond produces a reply to the incoming message. An empty reply
	// with a nil error means the participant chose to stay silent.
	Respond(ctx context.Context, ch *channel.Channel, incoming channel.Message) (string, error)
}

// Options configures a Base participant.
type Options struct {
	// ID overrides the generated identifier.
	ID string
	// Criteria decides when the participant speaks. Defaults to responding
	// only when directly addressed.
	Criteria criteria.Criteria
	// Coordinator tags the participant as a coordinator.
	Coordinator bool
	// Fallback makes the participant answer messages nobody else claimed.
	Fallback bool
	// Logger receives participant-level logs.
	Logger logging.Logger
}

// WithID sets a fixed participant id.
func WithID(id string) func(*Options) {
	return func(o *Options) { o.ID = id }
}

// WithCriteria sets the speaking criteria.
func WithCriteria(c criteria.Criteria) func(*Options) {
	return func(o *Options) { o.Criteria = c }
}

// WithCoordinator tags the participant as a coordinator and a fallback
// responder.
func WithCoordinator() func(*Options) {
	return func(o *Options) {
		o.Coordinator = true
		o.Fallback = true
	}
}

// WithFallback controls fallback behavior independently of the coordinator
// tag.
func WithFallback(fallback bool) func(*Options) {
	return func(o *Options) { o.Fallback = fallback }
}

// WithLogger sets the participant's logger.
func WithLogger(logger logging.Logger) func(*Options) {
	return func(o *Options) { o.Logger = logger }
}

// Base implements the identity and criteria half of Participant. Concrete
// participants embed it and supply Respond.
type Base struct {
	id          string
	label       string
	coordinator bool
	fallback    bool
	criteria    criteria.Criteria
	logger      logging.Logger
}

// NewBase creates a participant core with the given call sign.
func NewBase(label string, optFns ...func(*Options)) *Base {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Criteria == nil {
		opts.Criteria = criteria.DirectAddress{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Base{
		id:          opts.ID,
		label:       label,
		coordinator: opts.Coordinator,
		fallback:    opts.Fallback,
		criteria:    opts.Criteria,
		logger:      opts.Logger,
	}
}

func (b *Base) ID() string          { return b.id }
func (b *Base) Label() string       { return b.label }
func (b *Base) IsCoordinator() bool { return b.coordinator }
func (b *Base) IsFallback() bool    { return b.fallback }

// Logger exposes the participant's logger to embedding types.
func (b *Base) Logger() logging.Logger { return b.logger }

// ShouldRespond delegates to the configured criteria.
func (b *Base) ShouldRespond(recent []channel.Message) bool {
	return b.criteria.ShouldRespond(b.id, b.label, recent)
}
