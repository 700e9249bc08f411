package server

// Client-facing failure messages. Deliberately vague: the conflict message
// never reveals whether a duplicate key or a missing foreign key tripped
// the constraint.
const (
	msgNotFound     = "Item not found"
	msgConflict     = "Item already exists or foreign key constraint not met"
	msgBadSyntax    = "Invalid parameter syntax"
	msgQueryFailure = "Something broke during the query"
	msgForbidden    = "Insufficient permissions"
	msgNoSession    = "No active session"
)
