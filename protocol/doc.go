// Package protocol implements the voice-net style addressing grammar used on
// the shared channel. It turns free-text utterances into structured
// sender/recipient/intent metadata and formats outgoing messages back into
// the same grammar. Parsing is deterministic and side-effect free; malformed
// input degrades to an unaddressed message rather than an error.
package protocol
