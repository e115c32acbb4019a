// Package agent contains the model-backed agent used for every specialist of
// the assistant, together with the Instruction abstraction for static and
// state-dependent system prompts.
//
// Execution model:
//   - Run receives a *core.RunContext for a single user turn
//   - ModelAgent drives a flow.SingleAgentFlow and forwards its events
//     through the run context so staged state travels with them
//   - Routing between agents lives in the assistant package
package agent
