package client

const (
	typeJoinRoom  = "join_room"
	typeLeaveRoom = "leave_room"
	typeChat      = "chat"
	typeDelete    = "delete"
	typeError     = "error"
)

// envelope carries every frame in both directions. RoomID/Message are
// set on traffic frames, UserID only on server broadcasts, Msg only on
// server error frames.
type envelope struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId,omitempty"`
	Message string `json:"message,omitempty"`
	UserID  string `json:"userId,omitempty"`
	Msg     string `json:"msg,omitempty"`
}
