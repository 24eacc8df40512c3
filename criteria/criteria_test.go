package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/semanticarchitectures/multi-agent-collab/channel"
)

func msg(senderID, senderLabel, body string) channel.Message {
	return channel.NewMessage(senderID, body, senderLabel, channel.KindParticipant, nil)
}

func TestSelfSilence_AllVariants(t *testing.T) {
	own := []channel.Message{msg("a1", "Alpha One", "Alpha One, this is Control, anyone need help? over.")}

	variants := []Criteria{
		DirectAddress{},
		NewKeyword("help"),
		Question{},
		NewCoordinator(),
		Any(DirectAddress{}, Question{}),
	}
	for _, c := range variants {
		assert.False(t, c.ShouldRespond("a1", "Alpha One", own), "%T must not respond to own message", c)
	}
}

func TestDirectAddress(t *testing.T) {
	c := DirectAddress{}

	directed := []channel.Message{msg("u", "Control", "Alpha One, this is Control, report, over.")}
	assert.True(t, c.ShouldRespond("a1", "Alpha One", directed))
	assert.True(t, c.ShouldRespond("a1", "alpha one", directed))
	assert.False(t, c.ShouldRespond("a2", "Alpha Two", directed))

	broadcast := []channel.Message{msg("u", "Control", "All stations, this is Control, radio check, over.")}
	assert.True(t, c.ShouldRespond("a1", "Alpha One", broadcast))
	assert.True(t, c.ShouldRespond("a2", "Alpha Two", broadcast))

	assert.False(t, c.ShouldRespond("a1", "Alpha One", nil))
}

func TestDirectAddress_OnlyLastMessageCounts(t *testing.T) {
	window := []channel.Message{
		msg("u", "Control", "Alpha One, this is Control, report, over."),
		msg("u", "Control", "Alpha Two, this is Control, report, over."),
	}
	assert.False(t, DirectAddress{}.ShouldRespond("a1", "Alpha One", window))
	assert.True(t, DirectAddress{}.ShouldRespond("a2", "Alpha Two", window))
}

func TestKeyword(t *testing.T) {
	c := NewKeyword("fuel", "weather")

	assert.True(t, c.ShouldRespond("a1", "Alpha One",
		[]channel.Message{msg("u", "Control", "what is the WEATHER at the field")}))
	assert.False(t, c.ShouldRespond("a1", "Alpha One",
		[]channel.Message{msg("u", "Control", "proceed as briefed")}))

	sensitive := Keyword{Keywords: []string{"Fuel"}, CaseSensitive: true}
	assert.False(t, sensitive.ShouldRespond("a1", "Alpha One",
		[]channel.Message{msg("u", "Control", "fuel state low")}))
	assert.True(t, sensitive.ShouldRespond("a1", "Alpha One",
		[]channel.Message{msg("u", "Control", "Fuel state low")}))
}

func TestQuestion(t *testing.T) {
	c := Question{}
	assert.True(t, c.ShouldRespond("a1", "Alpha One",
		[]channel.Message{msg("u", "Control", "anyone on this net?")}))
	assert.False(t, c.ShouldRespond("a1", "Alpha One",
		[]channel.Message{msg("u", "Control", "net is quiet")}))
}

func TestCoordinator(t *testing.T) {
	c := NewCoordinator()

	assert.True(t, c.ShouldRespond("lead", "Alpha Lead",
		[]channel.Message{msg("u", "Control", "Alpha Lead, this is Control, sitrep, over.")}),
		"responds when directly addressed")

	assert.True(t, c.ShouldRespond("lead", "Alpha Lead",
		[]channel.Message{msg("a1", "Alpha One", "I am stuck on the route calculation")}),
		"responds to coordination keywords")

	assert.True(t, c.ShouldRespond("lead", "Alpha Lead",
		[]channel.Message{msg("u", "Control", "does anyone copy?")}),
		"responds to unaddressed questions")

	assert.False(t, c.ShouldRespond("lead", "Alpha Lead",
		[]channel.Message{msg("u", "Control", "Alpha One, are you there?")}),
		"ignores questions directed at someone else")

	assert.False(t, c.ShouldRespond("lead", "Alpha Lead",
		[]channel.Message{msg("a1", "Alpha One", "proceeding as briefed")}))
}

func TestComposite(t *testing.T) {
	window := []channel.Message{msg("u", "Control", "routine traffic")}

	assert.False(t, Any().ShouldRespond("a1", "Alpha One", window),
		"empty composite never responds")

	c := Any(DirectAddress{}, NewKeyword("routine"))
	assert.True(t, c.ShouldRespond("a1", "Alpha One", window))
}
