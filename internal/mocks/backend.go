// Package mocks provides testify mocks shared across package tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"feedsync/internal/models"
)

// BackendMock mocks the authoritative read/write API.
type BackendMock struct {
	mock.Mock
}

func (m *BackendMock) ListNotifications(ctx context.Context, limit, offset int) ([]models.Notification, error) {
	args := m.Called(ctx, limit, offset)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *BackendMock) MarkNotificationRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *BackendMock) MarkAllNotificationsRead(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *BackendMock) DeleteNotification(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *BackendMock) GetFriendshipStatus(ctx context.Context, peerID string) (models.FriendshipStatus, error) {
	args := m.Called(ctx, peerID)
	var status models.FriendshipStatus
	if val := args.Get(0); val != nil {
		status = val.(models.FriendshipStatus)
	}
	return status, args.Error(1)
}

func (m *BackendMock) AcceptFriendRequest(ctx context.Context, friendshipID string) error {
	args := m.Called(ctx, friendshipID)
	return args.Error(0)
}

func (m *BackendMock) RejectFriendRequest(ctx context.Context, friendshipID string) error {
	args := m.Called(ctx, friendshipID)
	return args.Error(0)
}

func (m *BackendMock) GetUnreadCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *BackendMock) GetChatUnreadBySenders(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	var counts map[string]int
	if val := args.Get(0); val != nil {
		counts = val.(map[string]int)
	}
	return counts, args.Error(1)
}

func (m *BackendMock) GetOnlineUsers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}
