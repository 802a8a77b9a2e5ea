// Package dialog drives the multi-step add, delete and export conversations.
//
// Each user has at most one active session. Every inbound text either moves
// the session forward, re-prompts within the same stage, or ends it. Sessions
// never move backwards.
package dialog
