// Package api defines the authoritative read/write contract against the
// backend of record, and its HTTP implementation.
package api

import (
	"context"

	"feedsync/internal/models"
)

// Backend is the authoritative read/write API. The server is always the final
// authority; every local value must be re-derivable through these reads.
type Backend interface {
	ListNotifications(ctx context.Context, limit, offset int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
	GetFriendshipStatus(ctx context.Context, peerID string) (models.FriendshipStatus, error)
	AcceptFriendRequest(ctx context.Context, friendshipID string) error
	RejectFriendRequest(ctx context.Context, friendshipID string) error
	GetUnreadCount(ctx context.Context) (int, error)
	GetChatUnreadBySenders(ctx context.Context) (map[string]int, error)
	GetOnlineUsers(ctx context.Context) ([]string, error)
}
