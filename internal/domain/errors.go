package domain

// Error is a coded rejection surfaced to the originating connection.
// A rejected event never terminates the session (the transport decides
// that only for unauthorized handshakes).
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

const (
	CodeUnauthorized   = "unauthorized"
	CodeInvalidRequest = "invalid-request"
	CodeRoomNotFound   = "room-not-found"
)

var (
	ErrUnauthorized = &Error{Code: CodeUnauthorized, Message: "no identity bound to session"}
	ErrRoomNotFound = &Error{Code: CodeRoomNotFound, Message: "unknown room"}
)

// InvalidRequest builds an invalid-request rejection with a concrete reason.
func InvalidRequest(msg string) *Error {
	return &Error{Code: CodeInvalidRequest, Message: msg}
}
