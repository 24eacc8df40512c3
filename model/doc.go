// Package model defines the language model abstraction participants speak
// through, normalized across providers. Adapters for the Anthropic and
// OpenAI APIs live in subpackages; MockModel supports testing without
// network access.
package model
