package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"feedsync/internal/models"
	"feedsync/internal/observability"
)

var _ Backend = (*HTTPBackend)(nil)

// HTTPBackend implements Backend against the REST API.
type HTTPBackend struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPBackend creates a backend client for the given base URL. An empty
// token disables the Authorization header.
func NewHTTPBackend(baseURL, token string, timeout time.Duration) *HTTPBackend {
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// do performs one request and decodes the response into out (when non-nil).
// Responses may carry the resource directly or wrapped in a {data: ...}
// envelope; both shapes are accepted.
func (b *HTTPBackend) do(ctx context.Context, operation, method, path string, body, out any) error {
	ctx, span := observability.StartClientSpan(ctx, operation)
	done := observability.TrackBackendRequest(operation)
	err := b.doOnce(ctx, method, path, body, out)
	done()
	if err != nil {
		observability.BackendRequestErrors.WithLabelValues(operation).Inc()
	}
	observability.EndClientSpan(span, err)
	return err
}

func (b *HTTPBackend) doOnce(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return models.NewTransientNetworkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return models.NewUnauthorizedError("session rejected by backend")
	case resp.StatusCode >= 400:
		return models.NewTransientNetworkError(
			fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode))
	}

	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.NewTransientNetworkError(fmt.Errorf("read response: %w", err))
	}
	if err := decodeMaybeEnveloped(raw, out); err != nil {
		return models.NewTransientNetworkError(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// decodeMaybeEnveloped unmarshals raw into out, unwrapping a {data: ...}
// envelope when present.
func decodeMaybeEnveloped(raw []byte, out any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 {
		raw = env.Data
	}
	return json.Unmarshal(raw, out)
}

// ListNotifications returns one page of the feed, newest first.
func (b *HTTPBackend) ListNotifications(ctx context.Context, limit, offset int) ([]models.Notification, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	var list []models.Notification
	if err := b.do(ctx, "list_notifications", http.MethodGet, "/notifications?"+q.Encode(), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkNotificationRead marks a single notification as read.
func (b *HTTPBackend) MarkNotificationRead(ctx context.Context, id string) error {
	return b.do(ctx, "mark_read", http.MethodPost, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllNotificationsRead marks the whole feed as read.
func (b *HTTPBackend) MarkAllNotificationsRead(ctx context.Context) error {
	return b.do(ctx, "mark_all_read", http.MethodPost, "/notifications/read-all", nil, nil)
}

// DeleteNotification removes a notification server-side.
func (b *HTTPBackend) DeleteNotification(ctx context.Context, id string) error {
	return b.do(ctx, "delete_notification", http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil)
}

// GetFriendshipStatus returns the authoritative relationship verdict for one peer.
func (b *HTTPBackend) GetFriendshipStatus(ctx context.Context, peerID string) (models.FriendshipStatus, error) {
	var resp struct {
		Status models.FriendshipStatus `json:"status"`
	}
	if err := b.do(ctx, "get_friendship_status", http.MethodGet,
		"/friendships/status/"+url.PathEscape(peerID), nil, &resp); err != nil {
		return models.FriendshipStatusNone, err
	}
	return resp.Status, nil
}

// AcceptFriendRequest accepts a pending friendship.
func (b *HTTPBackend) AcceptFriendRequest(ctx context.Context, friendshipID string) error {
	return b.do(ctx, "accept_friend_request", http.MethodPost,
		"/friendships/"+url.PathEscape(friendshipID)+"/accept", nil, nil)
}

// RejectFriendRequest rejects a pending friendship.
func (b *HTTPBackend) RejectFriendRequest(ctx context.Context, friendshipID string) error {
	return b.do(ctx, "reject_friend_request", http.MethodPost,
		"/friendships/"+url.PathEscape(friendshipID)+"/reject", nil, nil)
}

// GetUnreadCount returns the authoritative global notification unread count.
func (b *HTTPBackend) GetUnreadCount(ctx context.Context) (int, error) {
	var resp struct {
		Count int `json:"count"`
	}
	if err := b.do(ctx, "get_unread_count", http.MethodGet, "/notifications/unread-count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// GetChatUnreadBySenders returns the authoritative per-sender chat unread map.
func (b *HTTPBackend) GetChatUnreadBySenders(ctx context.Context) (map[string]int, error) {
	var m map[string]int
	if err := b.do(ctx, "get_chat_unread", http.MethodGet, "/chats/unread-by-sender", nil, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]int{}
	}
	return m, nil
}

// GetOnlineUsers returns the snapshot of currently-online peer ids.
func (b *HTTPBackend) GetOnlineUsers(ctx context.Context) ([]string, error) {
	var ids []string
	if err := b.do(ctx, "get_online_users", http.MethodGet, "/users/online", nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
