// Package handlers contains the HTTP endpoints of the handoff service:
// evaluate, execute, outcome reporting, analytics, and the health probes.
// Handlers translate between wire strings and the typed core, so parse
// failures stop at this boundary.
package handlers
