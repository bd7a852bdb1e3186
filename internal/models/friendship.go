package models

// FriendshipStatus represents the relationship between the current user and a
// peer, from the current user's point of view.
type FriendshipStatus string

const (
	// FriendshipStatusNone indicates no active friendship or request.
	FriendshipStatusNone FriendshipStatus = "none"
	// FriendshipStatusPending indicates a pending friendship request.
	FriendshipStatusPending FriendshipStatus = "pending"
	// FriendshipStatusAccepted indicates an accepted friendship.
	FriendshipStatusAccepted FriendshipStatus = "accepted"
	// FriendshipStatusRejected indicates a rejected friendship request.
	// A rejected request does not block re-sending, so callers never see it.
	FriendshipStatusRejected FriendshipStatus = "rejected"
)

// Normalize maps the authoritative value to what surfaces should display.
// rejected and anything unrecognized collapse to none.
func (s FriendshipStatus) Normalize() FriendshipStatus {
	switch s {
	case FriendshipStatusPending, FriendshipStatusAccepted:
		return s
	}
	return FriendshipStatusNone
}
