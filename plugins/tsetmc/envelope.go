package tsetmc

// Envelope is the uniform result every tool returns to its caller
type Envelope struct {
	IsSuccess bool   `json:"isSuccess"`
	Data      any    `json:"data"`
	Message   string `json:"message,omitempty"`
}

// Success wraps data in a successful envelope
func Success(data any, message string) *Envelope {
	return &Envelope{IsSuccess: true, Data: data, Message: message}
}

// Failure wraps data in a failed envelope
func Failure(data any, message string) *Envelope {
	return &Envelope{IsSuccess: false, Data: data, Message: message}
}
