package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semanticarchitectures/multi-agent-collab/channel"
	"github.com/semanticarchitectures/multi-agent-collab/criteria"
	"github.com/semanticarchitectures/multi-agent-collab/participant"
	"github.com/semanticarchitectures/multi-agent-collab/protocol"
)

// scripted is a test participant with a fixed reply.
type scripted struct {
	*participant.Base
	reply   string
	err     error
	panicit bool
	calls   int
}

func (s *scripted) Respond(_ context.Context, _ *channel.Channel, incoming channel.Message) (string, error) {
	s.calls++
	if s.panicit {
		panic("scripted panic")
	}
	if s.err != nil {
		return "", s.err
	}
	if s.reply == "" {
		return "", nil
	}
	return protocol.Format(s.reply, s.Label(), incoming.SenderLabel, true), nil
}

func newScripted(label, reply string, optFns ...func(*participant.Options)) *scripted {
	return &scripted{Base: participant.NewBase(label, optFns...), reply: reply}
}

func alwaysRespond() func(*participant.Options) {
	return participant.WithCriteria(criteria.Any(criteria.DirectAddress{}, criteria.Question{}, broadcastCriteria{}))
}

// broadcastCriteria answers any traffic that is not the participant's own.
type broadcastCriteria struct{}

func (broadcastCriteria) ShouldRespond(id, _ string, recent []channel.Message) bool {
	if len(recent) == 0 {
		return false
	}
	return recent[len(recent)-1].SenderID != id
}

func TestRunTurnDirectedDelivery(t *testing.T) {
	ch := channel.New()
	o := New(ch)
	scout := newScripted("Scout", "in position")
	medic := newScripted("Medic", "standing by")
	require.NoError(t, o.AddParticipant(scout))
	require.NoError(t, o.AddParticipant(medic))

	result, err := o.RunTurn(context.Background(), "Scout, this is Base, report status, over.")

	require.NoError(t, err)
	require.Len(t, result.Responses, 1)
	assert.Equal(t, "Scout", result.Responses[0].SenderLabel)
	assert.Equal(t, FallbackNone, result.Fallback)
	assert.Equal(t, 1, scout.calls)
	assert.Equal(t, 0, medic.calls)
	assert.Equal(t, 2, ch.Len(), "input plus reply on the channel")
}

func TestRunTurnDirectedNormalizesLabels(t *testing.T) {
	o := New(channel.New())
	unit := newScripted("North Ridge", "copy")
	require.NoError(t, o.AddParticipant(unit))

	result, err := o.RunTurn(context.Background(), "north_ridge, this is Base, radio check, over.")

	require.NoError(t, err)
	require.Len(t, result.Responses, 1)
	assert.Equal(t, 1, unit.calls)
}

func TestRunTurnUnresolvedRecipientFallsBackToCoordinator(t *testing.T) {
	o := New(channel.New())
	base := newScripted("Base", "no such unit on this net", participant.WithCoordinator())
	require.NoError(t, o.AddParticipant(base))

	result, err := o.RunTurn(context.Background(), "Ghost, this is Operator, come in, over.")

	require.NoError(t, err)
	assert.Equal(t, FallbackUnresolvedRecipient, result.Fallback)
	require.Len(t, result.Responses, 1)
	assert.Equal(t, "Base", result.Responses[0].SenderLabel)
}

func TestRunTurnUnresolvedRecipientNoCoordinator(t *testing.T) {
	o := New(channel.New())
	require.NoError(t, o.AddParticipant(newScripted("Scout", "here")))

	result, err := o.RunTurn(context.Background(), "Ghost, this is Operator, come in, over.")

	require.NoError(t, err)
	assert.Equal(t, FallbackUnresolvedRecipient, result.Fallback)
	assert.Empty(t, result.Responses)
}

func TestRunTurnBroadcastRespectsOrderAndCap(t *testing.T) {
	o := New(channel.New(), WithMaxResponses(2))
	a := newScripted("Alpha", "alpha here", alwaysRespond())
	b := newScripted("Bravo", "bravo here", alwaysRespond())
	c := newScripted("Charlie", "charlie here", alwaysRespond())
	require.NoError(t, o.AddParticipant(a))
	require.NoError(t, o.AddParticipant(b))
	require.NoError(t, o.AddParticipant(c))

	result, err := o.RunTurn(context.Background(), "All stations, this is Base, radio check, over.")

	require.NoError(t, err)
	require.Len(t, result.Responses, 2)
	assert.Equal(t, "Alpha", result.Responses[0].SenderLabel)
	assert.Equal(t, "Bravo", result.Responses[1].SenderLabel)
	assert.Equal(t, 0, c.calls)
}

func TestRunTurnBroadcastUncappedByDefault(t *testing.T) {
	o := New(channel.New())
	for _, label := range []string{"Alpha", "Bravo", "Charlie"} {
		require.NoError(t, o.AddParticipant(newScripted(label, label+" here", alwaysRespond())))
	}

	result, err := o.RunTurn(context.Background(), "Everyone, this is Base, check in, over.")

	require.NoError(t, err)
	assert.Len(t, result.Responses, 3)
}

func TestRunTurnNoRespondersFallsBackToCoordinator(t *testing.T) {
	o := New(channel.New())
	scout := newScripted("Scout", "here") // default criteria: direct address only
	base := newScripted("Base", "this is Base, say again your last, over", participant.WithCoordinator())
	require.NoError(t, o.AddParticipant(scout))
	require.NoError(t, o.AddParticipant(base))

	result, err := o.RunTurn(context.Background(), "is anyone monitoring the weather")

	require.NoError(t, err)
	assert.Equal(t, FallbackNoResponders, result.Fallback)
	require.Len(t, result.Responses, 1)
	assert.Equal(t, "Base", result.Responses[0].SenderLabel)
	assert.Equal(t, 0, scout.calls)
}

func TestRunTurnSilentReplySkipped(t *testing.T) {
	o := New(channel.New())
	mute := newScripted("Scout", "") // responds with silence
	require.NoError(t, o.AddParticipant(mute))

	result, err := o.RunTurn(context.Background(), "Scout, this is Base, radio check, over.")

	require.NoError(t, err)
	assert.Equal(t, 1, mute.calls)
	assert.Empty(t, result.Responses)
}

func TestRunTurnParticipantErrorIsolated(t *testing.T) {
	o := New(channel.New())
	broken := newScripted("Alpha", "x", alwaysRespond())
	broken.err = errors.New("model down")
	healthy := newScripted("Bravo", "bravo here", alwaysRespond())
	require.NoError(t, o.AddParticipant(broken))
	require.NoError(t, o.AddParticipant(healthy))

	result, err := o.RunTurn(context.Background(), "All stations, this is Base, check in, over.")

	require.NoError(t, err)
	require.Len(t, result.Responses, 1)
	assert.Equal(t, "Bravo", result.Responses[0].SenderLabel)
}

func TestRunTurnParticipantPanicIsolated(t *testing.T) {
	o := New(channel.New())
	panicky := newScripted("Alpha", "x", alwaysRespond())
	panicky.panicit = true
	healthy := newScripted("Bravo", "bravo here", alwaysRespond())
	require.NoError(t, o.AddParticipant(panicky))
	require.NoError(t, o.AddParticipant(healthy))

	result, err := o.RunTurn(context.Background(), "All stations, this is Base, check in, over.")

	require.NoError(t, err)
	require.Len(t, result.Responses, 1)
	assert.Equal(t, "Bravo", result.Responses[0].SenderLabel)
}

func TestRunTurnEmptyInputEmptyChannel(t *testing.T) {
	o := New(channel.New())

	_, err := o.RunTurn(context.Background(), "   ")

	assert.Error(t, err)
}

func TestRunTurnWithoutInputContinuesConversation(t *testing.T) {
	ch := channel.New()
	o := New(ch)
	scout := newScripted("Scout", "moving to checkpoint", alwaysRespond())
	require.NoError(t, o.AddParticipant(scout))

	ch.Append("external", "Everyone, this is Base, proceed, over.", "Base", channel.KindExternalInput, nil)

	result, err := o.RunTurn(context.Background(), "")

	require.NoError(t, err)
	require.Len(t, result.Responses, 1)
	assert.Equal(t, "Scout", result.Responses[0].SenderLabel)
	// Nothing new was appended as input.
	assert.Equal(t, 2, ch.Len())
}

func TestRunTurnCapCountsProducedResponses(t *testing.T) {
	ch := channel.New()
	o := New(ch, WithMaxResponses(2))
	broken := newScripted("Alpha", "", alwaysRespond())
	broken.err = errors.New("radio failure")
	require.NoError(t, o.AddParticipant(broken))
	require.NoError(t, o.AddParticipant(newScripted("Bravo", "in position", alwaysRespond())))
	require.NoError(t, o.AddParticipant(newScripted("Charlie", "standing by", alwaysRespond())))

	result, err := o.RunTurn(context.Background(), "All stations, this is Base, report, over.")

	require.NoError(t, err)
	require.Len(t, result.Responses, 2)
	assert.Equal(t, "Bravo", result.Responses[0].SenderLabel)
	assert.Equal(t, "Charlie", result.Responses[1].SenderLabel)
}

func TestAddParticipantCapacity(t *testing.T) {
	o := New(channel.New(), WithMaxParticipants(1))
	require.NoError(t, o.AddParticipant(newScripted("Alpha", "x")))

	err := o.AddParticipant(newScripted("Bravo", "y"))

	var re *RegistrationError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Bravo", re.Label)
}

func TestAddParticipantDuplicateLabel(t *testing.T) {
	o := New(channel.New())
	require.NoError(t, o.AddParticipant(newScripted("North Ridge", "x")))

	err := o.AddParticipant(newScripted("north_ridge", "y"))

	var re *RegistrationError
	assert.ErrorAs(t, err, &re)
}

func TestRemoveParticipantClearsCoordinator(t *testing.T) {
	o := New(channel.New())
	base := newScripted("Base", "x", participant.WithCoordinator())
	require.NoError(t, o.AddParticipant(base))
	require.NotNil(t, o.Coordinator())

	assert.True(t, o.RemoveParticipant("Base"))
	assert.Nil(t, o.Coordinator())
	assert.False(t, o.RemoveParticipant("Base"))
}

func TestRemoveParticipantPromotesNextCoordinator(t *testing.T) {
	o := New(channel.New())
	first := newScripted("Base", "x", participant.WithCoordinator())
	second := newScripted("Relay", "y", participant.WithCoordinator())
	require.NoError(t, o.AddParticipant(first))
	require.NoError(t, o.AddParticipant(second))
	require.Equal(t, "Base", o.Coordinator().Label())

	o.RemoveParticipant("Base")

	require.NotNil(t, o.Coordinator())
	assert.Equal(t, "Relay", o.Coordinator().Label())
}
