package domain

type (
	UserID string
	RoomID string
)
