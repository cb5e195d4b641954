package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldCommand   = "command"
	FieldChannelID = "channel_id"
	FieldUserID    = "user_id"
	FieldFlow      = "flow"
	FieldPosition  = "position"
	FieldCategory  = "category"
	FieldAmount    = "amount"
	FieldItem      = "item"
	FieldPath      = "path"
	FieldDuration  = "duration_ms"
	FieldEventID   = "event_id"
	FieldBackend   = "backend"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentBot      = "bot"
	ComponentDiscord  = "discord"
	ComponentLedger   = "ledger"
	ComponentPlan     = "plan"
	ComponentReport   = "report"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentMonthEnd = "month_end"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpAppend   = "append"
	OpRead     = "read"
	OpReplace  = "replace"
	OpSetLimit = "set_limit"
	OpRender   = "render"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpMirror   = "mirror"
	OpPrompt   = "prompt"
	OpExpire   = "expire"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the fields describing one ledger record.
func (f LogFields) WithTransaction(flow, item, amount, category string) LogFields {
	f[FieldFlow] = flow
	f[FieldItem] = item
	f[FieldAmount] = amount
	f[FieldCategory] = category
	return f
}

// WithChat adds the channel and user a command came from.
func (f LogFields) WithChat(channelID, userID string) LogFields {
	f[FieldChannelID] = channelID
	f[FieldUserID] = userID
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
