// Package cli implements the interactive daybook client.
//
// The REPL fronts the synchronization engine: every edit is applied to the
// local store synchronously and delivered to the server in the background,
// so commands never block on network latency. A connectivity watcher probes
// the server and flips the prompt between online and offline.
//
// Commands
//
//	Not logged in:
//	  - help           — show available commands
//	  - register       — create an account
//	  - login          — authenticate
//	  - today          — open (or create) today's entry
//	  - write          — append a paragraph to today's entry
//	  - list           — list local entries
//	  - status         — show sync state and pending count
//	  - exit | quit    — leave the program
//
//	Logged in additionally:
//	  - sync           — force a delivery pass and pull remote entries
//	  - retry          — revive parked entries after rejections
//	  - logout         — log out (pending work is retained)
//
// Writing works before any account exists; entries created offline are
// adopted on first login.
package cli
