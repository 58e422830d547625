package checkersdto

type SelectRequest struct {
	PieceID *int `json:"piece_id"`
}

type MoveRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

// Frame types exchanged over the game websocket.
const (
	FrameSelect = "select"
	FrameMove   = "move"
	FrameState  = "state"
	FrameError  = "error"
)

// ClientFrame is sent by a websocket client. Fields a frame type needs must be present.
type ClientFrame struct {
	Type    string `json:"type"`
	PieceID *int   `json:"piece_id,omitempty"`
	Row     *int   `json:"row,omitempty"`
	Col     *int   `json:"col,omitempty"`
}

// ServerFrame carries either a state or an error.
type ServerFrame struct {
	Type  string       `json:"type"`
	State *StateView   `json:"state,omitempty"`
	Error *DomainError `json:"error,omitempty"`
}
