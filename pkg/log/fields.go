package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldTeamNumber = "team_number"
	FieldClientID   = "client_id"

	// Messaging
	FieldGroup     = "group"
	FieldMessageID = "message_id"
	FieldEventID   = "event_id"
	FieldEventKind = "event_kind"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
