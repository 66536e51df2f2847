package model

// UserID uniquely identifies an authenticated user across connections
type UserID string

// ConnectionID identifies one live transport connection
type ConnectionID string

// Identity is the authenticated user attached to a connection.
// It is supplied by the identity collaborator and never regenerated on reconnect.
type Identity struct {
	UserID      UserID `json:"userId" msgpack:"user_id"`
	DisplayName string `json:"displayName" msgpack:"display_name"`
}

// PlayerMarker pairs a room member with the marker they play in the current session
type PlayerMarker struct {
	UserID      UserID `json:"userId"`
	DisplayName string `json:"displayName"`
	Marker      Marker `json:"marker"`
}

// Actor identifies who is acting on a session. A non-empty ConnectionID is
// resolved first so attribution follows the live connection.
type Actor struct {
	UserID       UserID
	ConnectionID ConnectionID
}
