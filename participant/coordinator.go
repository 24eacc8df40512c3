package participant

import (
	"github.com/semanticarchitectures/multi-agent-collab/protocol"
)

// Coordination helpers. These only format traffic; putting it on the
// channel is the caller's job.

// AssignTask formats a task assignment addressed to one participant.
func (b *Base) AssignTask(recipient, task string) string {
	return protocol.Format("assigning you the following task: "+task, b.Label(), recipient, true)
}

// BroadcastToTeam formats a broadcast to every station on the net.
func (b *Base) BroadcastToTeam(body string) string {
	return protocol.Format(body, b.Label(), "All units", true)
}

// RequestStatus formats a status request, broadcast when recipient is empty.
func (b *Base) RequestStatus(recipient string) string {
	if recipient == "" {
		recipient = "All units"
	}
	return protocol.Format("requesting status update", b.Label(), recipient, true)
}
