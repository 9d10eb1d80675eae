package log

// Canonical attribute keys for structured log records. Handlers and
// middleware use these instead of ad-hoc strings so records stay
// queryable across components.
const (
	FieldComponent = "component"
	FieldPath      = "path"
	FieldMethod    = "method"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldRequestID = "request_id"
	FieldRecordID  = "record_id"
	FieldKey       = "key"
)

// Component names.
const (
	ComponentHTTP   = "http"
	ComponentStore  = "store"
	ComponentWorker = "worker"
	ComponentEvents = "events"
)
