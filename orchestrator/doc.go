// Package orchestrator runs conversation turns over a shared channel. Each
// turn takes one external input, selects responders by addressing and
// speaking criteria, dispatches them sequentially, and falls back to the
// coordinator when a message cannot be delivered or nobody answers.
package orchestrator
