// Package models contains data structures for the application's domain models.
package models

import (
	"encoding/json"
	"time"
)

// NotificationType classifies a notification. The set is open: unknown types
// coming off the wire are kept as-is and rendered generically by callers.
type NotificationType string

const (
	// NotificationFriendRequest indicates an incoming friend request.
	NotificationFriendRequest NotificationType = "friend_request"
	// NotificationFriendAccepted indicates a friend request was accepted.
	NotificationFriendAccepted NotificationType = "friend_accepted"
	// NotificationFriendRejected indicates a friend request was rejected.
	NotificationFriendRejected NotificationType = "friend_rejected"
	// NotificationCommentReply indicates a reply to the user's comment.
	NotificationCommentReply NotificationType = "comment_reply"
	// NotificationPostComment indicates a comment on the user's post.
	NotificationPostComment NotificationType = "post_comment"
	// NotificationPostLiked indicates a like on the user's post.
	NotificationPostLiked NotificationType = "post_liked"
	// NotificationPostUploadCompleted indicates a finished media upload.
	NotificationPostUploadCompleted NotificationType = "post_upload_completed"
	// NotificationRoleUpdated indicates the user's role changed.
	NotificationRoleUpdated NotificationType = "role_updated"
	// NotificationRolePurchased indicates a role purchase completed.
	NotificationRolePurchased NotificationType = "role_purchased"
	// NotificationNewReport indicates a new moderation report.
	NotificationNewReport NotificationType = "new_report"
	// NotificationReportReply indicates a reply on a moderation report.
	NotificationReportReply NotificationType = "report_reply"
)

// IsFriendshipLifecycle reports whether the type describes a friendship
// request lifecycle event. Surfaces showing friend buttons or lists re-derive
// their view when one of these arrives.
func (t NotificationType) IsFriendshipLifecycle() bool {
	switch t {
	case NotificationFriendRequest, NotificationFriendAccepted, NotificationFriendRejected:
		return true
	}
	return false
}

// IsKnown reports whether the type is one of the declared constants.
func (t NotificationType) IsKnown() bool {
	switch t {
	case NotificationFriendRequest, NotificationFriendAccepted, NotificationFriendRejected,
		NotificationCommentReply, NotificationPostComment, NotificationPostLiked,
		NotificationPostUploadCompleted, NotificationRoleUpdated, NotificationRolePurchased,
		NotificationNewReport, NotificationReportReply:
		return true
	}
	return false
}

// UserSummary is the minimal user projection attached to notifications.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Notification represents one entry of the user's notification feed.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Sender    *UserSummary     `json:"sender,omitempty"`
	TargetID  string           `json:"target_id,omitempty"`
	Data      json.RawMessage  `json:"data,omitempty"`
	Title     string           `json:"title,omitempty"`
	Message   string           `json:"message,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// FriendshipRef resolves the id of the friendship the notification acts on.
// TargetID wins; older payloads carry the id inside Data instead. Returns ""
// when no id can be resolved.
func (n *Notification) FriendshipRef() string {
	if n.TargetID != "" {
		return n.TargetID
	}
	if len(n.Data) == 0 {
		return ""
	}
	var data struct {
		FriendshipID string `json:"friendship_id"`
		ID           string `json:"id"`
	}
	if err := json.Unmarshal(n.Data, &data); err != nil {
		return ""
	}
	if data.FriendshipID != "" {
		return data.FriendshipID
	}
	return data.ID
}

// SenderID returns the sender's user id, or "" when no sender is attached.
func (n *Notification) SenderID() string {
	if n.Sender == nil {
		return ""
	}
	return n.Sender.ID
}
