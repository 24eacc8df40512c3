package participant

import (
	"context"
	"fmt"
	"strings"

	"github.com/semanticarchitectures/multi-agent-collab/channel"
	"github.com/semanticarchitectures/multi-agent-collab/model"
	"github.com/semanticarchitectures/multi-agent-collab/protocol"
	"github.com/semanticarchitectures/multi-agent-collab/provider"
)

// ToolCaller is the slice of the provider manager a model participant uses
// to discover and execute tools.
type ToolCaller interface {
	Tools() []provider.ToolInfo
	CallTool(ctx context.Context, tool string, args map[string]any, optFns ...func(*provider.CallOptions)) (string, error)
}

// ModelOptions configures a ModelParticipant.
type ModelOptions struct {
	// SystemPrompt is the participant's persona. Protocol and memory
	// instructions are appended to it.
	SystemPrompt string
	// ContextSize is how many relevant channel messages feed the prompt.
	ContextSize int
	// MaxToolRounds bounds the generate/execute loop per response.
	MaxToolRounds int
	// Tools executes tool calls. Nil disables tool use.
	Tools ToolCaller
	// Memory holds the participant's persistent memory. Defaults to a
	// fresh empty store.
	Memory *MemoryStore
}

// WithSystemPrompt sets the persona prompt.
func WithSystemPrompt(prompt string) func(*ModelOptions) {
	return func(o *ModelOptions) { o.SystemPrompt = prompt }
}

// WithContextSize sets how much channel history feeds the prompt.
func WithContextSize(n int) func(*ModelOptions) {
	return func(o *ModelOptions) { o.ContextSize = n }
}

// WithMaxToolRounds bounds the tool loop.
func WithMaxToolRounds(n int) func(*ModelOptions) {
	return func(o *ModelOptions) { o.MaxToolRounds = n }
}

// WithTools wires a tool caller, usually a *provider.Manager.
func WithTools(tc ToolCaller) func(*ModelOptions) {
	return func(o *ModelOptions) { o.Tools = tc }
}

// WithMemory supplies a preexisting memory store.
func WithMemory(m *MemoryStore) func(*ModelOptions) {
	return func(o *ModelOptions) { o.Memory = m }
}

// ModelParticipant generates replies with a language model. Tool calls in
// model output are executed through the tool caller and fed back until the
// model produces text or the round bound is hit. DIRECTIVE lines in the
// final text are stored in memory and stripped from the reply.
type ModelParticipant struct {
	*Base
	model  model.Model
	opts   ModelOptions
	memory *MemoryStore
}

// NewModelParticipant wraps a participant core and a model. Build the core
// with NewBase first; optFns tune generation behavior.
func NewModelParticipant(base *Base, m model.Model, optFns ...func(*ModelOptions)) *ModelParticipant {
	opts := ModelOptions{
		ContextSize:   20,
		MaxToolRounds: 5,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Memory == nil {
		opts.Memory = NewMemoryStore()
	}

	return &ModelParticipant{
		Base:   base,
		model:  m,
		opts:   opts,
		memory: opts.Memory,
	}
}

// Memory exposes the participant's memory store.
func (p *ModelParticipant) Memory() *MemoryStore { return p.memory }

// Respond generates a reply to the incoming message, executing tool calls
// as needed. The reply is addressed with the voice-net protocol unless the
// model already formatted it.
func (p *ModelParticipant) Respond(ctx context.Context, ch *channel.Channel, incoming channel.Message) (string, error) {
	req := model.Request{
		System:   p.systemPrompt(),
		Messages: p.buildMessages(ch, incoming),
		Tools:    p.toolSpecs(),
	}

	resp, err := p.runToolLoop(ctx, req)
	if err != nil {
		return "", err
	}

	directives, cleaned := ParseDirectives(resp.Text)
	if len(directives) > 0 {
		p.memory.Apply(directives)
		p.Logger().Debug("memory updated", "participant", p.Label(), "directives", len(directives))
	}
	if cleaned == "" {
		return "", nil
	}

	// Pass through replies the model already addressed itself.
	if parsed := protocol.Parse(cleaned); parsed.Sender != "" {
		return cleaned, nil
	}
	// External input carries no sender label, so prefer the callsign the
	// message body identifies itself with.
	recipient := incoming.Address.Sender
	if recipient == "" {
		recipient = incoming.SenderLabel
	}
	return protocol.Format(cleaned, p.Label(), recipient, true), nil
}

func (p *ModelParticipant) runToolLoop(ctx context.Context, req model.Request) (model.Response, error) {
	resp, err := p.model.Generate(ctx, req)
	if err != nil {
		return model.Response{}, fmt.Errorf("participant %q: generate: %w", p.Label(), err)
	}

	for round := 0; len(resp.ToolCalls) > 0 && p.opts.Tools != nil; round++ {
		if round >= p.opts.MaxToolRounds {
			p.Logger().Warn("tool round limit reached", "participant", p.Label(), "rounds", round)
			break
		}

		req.Messages = append(req.Messages, model.Message{
			Role:      model.RoleAssistant,
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		for _, tc := range resp.ToolCalls {
			out, callErr := p.opts.Tools.CallTool(ctx, tc.Name, tc.Arguments)
			if callErr != nil {
				out = fmt.Sprintf("tool error: %v", callErr)
				p.Logger().Warn("tool call failed",
					"participant", p.Label(), "tool", tc.Name, "error", callErr)
			}
			req.Messages = append(req.Messages, model.Message{
				Role:       model.RoleTool,
				Text:       out,
				ToolCallID: tc.ID,
			})
		}

		resp, err = p.model.Generate(ctx, req)
		if err != nil {
			return model.Response{}, fmt.Errorf("participant %q: generate: %w", p.Label(), err)
		}
	}

	return resp, nil
}

func (p *ModelParticipant) buildMessages(ch *channel.Channel, incoming channel.Message) []model.Message {
	history := ch.RelevantTo(p.Label(), p.opts.ContextSize, true)

	messages := make([]model.Message, 0, len(history)+1)
	seenIncoming := false
	for _, msg := range history {
		if msg.ID == incoming.ID {
			seenIncoming = true
		}
		messages = append(messages, p.toModelMessage(msg))
	}
	if !seenIncoming {
		messages = append(messages, p.toModelMessage(incoming))
	}
	return messages
}

func (p *ModelParticipant) toModelMessage(msg channel.Message) model.Message {
	if msg.SenderID == p.ID() {
		return model.Message{Role: model.RoleAssistant, Text: msg.Body}
	}
	label := msg.SenderLabel
	if label == "" {
		label = "system"
	}
	return model.Message{
		Role: model.RoleUser,
		Text: fmt.Sprintf("%s: %s", label, msg.Body),
	}
}

func (p *ModelParticipant) toolSpecs() []model.ToolSpec {
	if p.opts.Tools == nil {
		return nil
	}
	infos := p.opts.Tools.Tools()
	specs := make([]model.ToolSpec, len(infos))
	for i, info := range infos {
		specs[i] = model.ToolSpec{
			Name:        info.Name,
			Description: info.Description,
			InputSchema: info.InputSchema,
		}
	}
	return specs
}

func (p *ModelParticipant) systemPrompt() string {
	var sb strings.Builder
	if p.opts.SystemPrompt != "" {
		sb.WriteString(p.opts.SystemPrompt)
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "You are %q on a shared voice-net channel with other agents.\n", p.Label())
	sb.WriteString("Address replies with the channel protocol: ")
	sb.WriteString(`"<recipient>, this is <your call sign>, <message>, over."`)
	sb.WriteString("\nUse a broadcast address like \"All stations\" to reach everyone.")
	sb.WriteString("\nTo remember something across turns, put it on its own line as ")
	sb.WriteString("DIRECTIVE[category]: payload. Directive lines are never shown to others.")

	if mem := p.memory.FormatForPrompt(); mem != "" {
		sb.WriteString("\n\n")
		sb.WriteString(mem)
	}
	return sb.String()
}
