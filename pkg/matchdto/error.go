package matchdto

// DomainError is the transport-facing shape of a rejected client action.
// Code is stable for clients; Message is human-readable detail.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "match service error"
}
