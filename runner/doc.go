// Package runner drives a single conversational turn.
//
// A Runner owns the root agent and the session store. For each user message
// it appends the user event, runs the agent on a fresh core.RunContext,
// persists every non-partial event (merging its StateDelta) and signals the
// agent to continue once persistence is done, so tools and later model calls
// always observe up-to-date session state.
//
// Respond is the synchronous helper used by the front ends: it drains a run
// and returns the final answer text.
package runner
