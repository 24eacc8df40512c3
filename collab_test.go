package collab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semanticarchitectures/multi-agent-collab/model"
	"github.com/semanticarchitectures/multi-agent-collab/participant"
)

func TestCollabEndToEndTurn(t *testing.T) {
	c := New()
	defer c.Close()

	scout := participant.NewModelParticipant(
		participant.NewBase("Scout"),
		model.NewMockModel(model.Response{Text: "ridge is clear"}),
	)
	base := participant.NewModelParticipant(
		participant.NewBase("Base", participant.WithCoordinator()),
		model.NewMockModel(model.Response{Text: "copy all"}),
	)
	require.NoError(t, c.AddParticipant(scout))
	require.NoError(t, c.AddParticipant(base))

	result, err := c.RunTurn(context.Background(), "Scout, this is Base, report, over.")

	require.NoError(t, err)
	require.Len(t, result.Responses, 1)
	assert.Equal(t, "Scout", result.Responses[0].SenderLabel)
	assert.Equal(t, "Base, this is Scout, ridge is clear, over.", result.Responses[0].Body)
	assert.Equal(t, 2, c.Channel().Len())
	assert.Equal(t, "Base", c.Orchestrator().Coordinator().Label())
}

func TestCollabOptions(t *testing.T) {
	c := New(func(o *Options) {
		o.MaxParticipants = 1
	})
	defer c.Close()

	require.NoError(t, c.AddParticipant(participant.NewModelParticipant(
		participant.NewBase("Scout"), model.NewMockModel(),
	)))
	err := c.AddParticipant(participant.NewModelParticipant(
		participant.NewBase("Base"), model.NewMockModel(),
	))
	assert.Error(t, err)
}
