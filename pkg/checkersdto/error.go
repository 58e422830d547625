package checkersdto

// Error codes carried by DomainError.Code.
const (
	CodeInvalidSelection   = "invalid_selection"
	CodeInvalidMoveTarget  = "invalid_move_target"
	CodeGameNotFound       = "game_not_found"
	CodeConflict           = "conflict"
	CodeHistoryUnavailable = "history_unavailable"
	CodeBadRequest         = "bad_request"
	CodeInternal           = "internal"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "checkers service error"
}
