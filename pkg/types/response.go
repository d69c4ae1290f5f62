package types

// MessageEnvelope is the minimal success body.
type MessageEnvelope struct {
	Message string `json:"message"`
}

// ErrorEnvelope is the failure body: a human message plus the machine code.
type ErrorEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}
