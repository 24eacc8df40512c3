// Package participant defines the agents that take part in a shared channel
// conversation. A participant decides when to speak through its speaking
// criteria and produces replies addressed with the voice-net protocol.
//
// Base carries identity, the coordinator tag, and criteria wiring.
// ModelParticipant generates replies with a language model and can execute
// tools through a provider manager, with persistent memory driven by
// DIRECTIVE lines in model output.
package participant
