// Package provider manages external tool providers: subprocesses that expose
// tools over a JSON-RPC stdio protocol. The Manager launches providers,
// discovers their tools during a handshake, and routes tool calls to the
// owning provider through a per-provider circuit breaker.
//
// A provider that fails its handshake leaves no state behind; a provider
// that fails repeatedly at call time trips its breaker and is rejected fast
// until it recovers.
package provider
