package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/semanticarchitectures/multi-agent-collab/channel"
	"github.com/semanticarchitectures/multi-agent-collab/orchestrator"
	"github.com/semanticarchitectures/multi-agent-collab/participant"
)

// ParticipantState is the persisted slice of one participant.
type ParticipantState struct {
	ID          string              `json:"id"`
	Label       string              `json:"label"`
	Coordinator bool                `json:"coordinator,omitempty"`
	Memory      map[string][]string `json:"memory,omitempty"`
}

// Snapshot is a point-in-time capture of a conversation.
type Snapshot struct {
	ID           string             `json:"id"`
	Label        string             `json:"label,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	Messages     []channel.Message  `json:"messages"`
	Participants []ParticipantState `json:"participants,omitempty"`
}

// Store persists snapshots.
type Store interface {
	Save(snap Snapshot) error
	Load(id string) (Snapshot, error)
	List() ([]Snapshot, error)
	Delete(id string) error
}

// NotFoundError indicates no snapshot exists with the requested id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("snapshot %q not found", e.ID)
}

// Capture builds a snapshot of the orchestrator's channel and participants.
// Memory is captured for participants that expose a memory store.
func Capture(o *orchestrator.Orchestrator, label string) Snapshot {
	snap := Snapshot{
		ID:        uuid.NewString(),
		Label:     label,
		CreatedAt: time.Now().UTC(),
		Messages:  o.Channel().Snapshot(),
	}

	for _, p := range o.Participants() {
		state := ParticipantState{
			ID:          p.ID(),
			Label:       p.Label(),
			Coordinator: p.IsCoordinator(),
		}
		if mp, ok := p.(*participant.ModelParticipant); ok {
			state.Memory = mp.Memory().Snapshot()
		}
		snap.Participants = append(snap.Participants, state)
	}
	return snap
}

// Restore replays a snapshot into the orchestrator: the transcript replaces
// the channel contents and captured memory is applied to registered
// participants with matching labels. Participants themselves are not
// recreated; register them before restoring.
func Restore(o *orchestrator.Orchestrator, snap Snapshot) {
	o.Channel().Restore(snap.Messages)

	byLabel := make(map[string]*participant.ModelParticipant)
	for _, p := range o.Participants() {
		if mp, ok := p.(*participant.ModelParticipant); ok {
			byLabel[mp.Label()] = mp
		}
	}

	for _, state := range snap.Participants {
		mp, ok := byLabel[state.Label]
		if !ok || len(state.Memory) == 0 {
			continue
		}
		for category, entries := range state.Memory {
			directives := make([]participant.Directive, len(entries))
			for i, e := range entries {
				directives[i] = participant.Directive{Category: category, Payload: e}
			}
			mp.Memory().Apply(directives)
		}
	}
}
