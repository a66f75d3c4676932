// Package chat is the conversation orchestration core: it provisions remote
// agents from stored definitions, wraps user turns with per-agent
// instruction templates, executes turns against the provider with a hard
// timeout, resolves agent hand-offs mid-conversation, runs utility agents
// for derived artifacts and tears down every remote resource a conversation
// created.
//
// The package is deliberately provider-agnostic: all remote interaction goes
// through provider.Provider, persistence through store.Repository, document
// content through storage.ObjectStore and live conversation state through
// core.Tracker. The Service type wires these together.
package chat
