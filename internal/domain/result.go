package domain

// DefaultFailureMessage fills results that fail without saying why
const DefaultFailureMessage = "Operation failed"

// LogEntry is a diagnostic line forwarded from an actuator
type LogEntry struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// OperationResult is the outcome of a façade command. Message is always set
// when Success is false.
type OperationResult struct {
	Success bool       `json:"Success"`
	Message string     `json:"Message,omitempty"`
	Data    any        `json:"Data,omitempty"`
	Kind    ErrorKind  `json:"Kind,omitempty"`
	Logs    []LogEntry `json:"Logs,omitempty"`
}

// Succeeded builds a successful result
func Succeeded(message string, data any) *OperationResult {
	return &OperationResult{Success: true, Message: message, Data: data}
}

// Failed builds a failed result from an error
func Failed(err error) *OperationResult {
	r := &OperationResult{Success: false, Kind: KindOf(err)}
	if err != nil {
		r.Message = err.Error()
	}
	return r.Normalize()
}

// Normalize enforces the message invariant
func (r *OperationResult) Normalize() *OperationResult {
	if !r.Success && r.Message == "" {
		r.Message = DefaultFailureMessage
	}
	if r.Success {
		r.Kind = KindNone
	}
	return r
}

// Records returns Data as a snapshot when it holds one
func (r *OperationResult) Records() ([]ProcessRecord, bool) {
	records, ok := r.Data.([]ProcessRecord)
	return records, ok
}
