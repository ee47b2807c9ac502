// Package api is the REST client for the messaging backend: chat lists,
// transcripts, outbound sends and notification persistence.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the backend's JSON API. Every response carries a
// {success, message?} envelope; success=false is surfaced as an error.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// ChatSummary is one entry of the backend's chat list.
type ChatSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsGroup     bool   `json:"isGroup"`
	LastMessage string `json:"lastMessage"`
}

// TranscriptMessage is one message of a fetched chat transcript.
type TranscriptMessage struct {
	ID        string `json:"id"`
	Body      string `json:"body"`
	From      string `json:"from"`
	Author    string `json:"author"`
	Timestamp int64  `json:"timestamp"`
	Sent      int    `json:"sent"`
}

// Notification is a persisted notification record.
type Notification struct {
	ID          int64  `json:"id"`
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ChatID      string `json:"chat_id"`
	MessageID   string `json:"message_id"`
}

// SaveNotificationRequest is the notification-persistence payload.
// ChatID and MessageID are optional and let a click navigate back.
type SaveNotificationRequest struct {
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ChatID      string `json:"chatId,omitempty"`
	MessageID   string `json:"messageId,omitempty"`
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ChatList fetches all chats known to the backend.
func (c *Client) ChatList(ctx context.Context) ([]ChatSummary, error) {
	var resp struct {
		envelope
		Chats []ChatSummary `json:"chats"`
	}
	if err := c.get(ctx, "/api/chat-list", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, apiError("chat-list", resp.Message)
	}
	return resp.Chats, nil
}

// ChatMessages fetches the transcript of one chat.
func (c *Client) ChatMessages(ctx context.Context, chatID string) ([]TranscriptMessage, error) {
	var resp struct {
		envelope
		Messages []TranscriptMessage `json:"messages"`
	}
	path := "/api/chat-messages?chatId=" + url.QueryEscape(chatID)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, apiError("chat-messages", resp.Message)
	}
	return resp.Messages, nil
}

// SendText sends a text message to a chat. Returns the server message id
// when the backend reports one, empty otherwise.
func (c *Client) SendText(ctx context.Context, chatID, text string) (string, error) {
	var resp struct {
		envelope
		MessageID string `json:"messageId"`
	}
	body := map[string]string{"chatId": chatID, "messageText": text}
	if err := c.post(ctx, "/api/send-text-message", body, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", apiError("send-text-message", resp.Message)
	}
	return resp.MessageID, nil
}

// SaveNotification persists a delivered notification, best-effort.
func (c *Client) SaveNotification(ctx context.Context, req SaveNotificationRequest) error {
	var resp envelope
	if err := c.post(ctx, "/api/notifications/save", req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return apiError("notifications/save", resp.Message)
	}
	return nil
}

// UserNotifications fetches the user's uncleared notifications.
func (c *Client) UserNotifications(ctx context.Context, userID string) ([]Notification, error) {
	var resp struct {
		envelope
		Notifications []Notification `json:"notifications"`
	}
	if err := c.post(ctx, "/api/notifications/user", map[string]string{"userId": userID}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, apiError("notifications/user", resp.Message)
	}
	return resp.Notifications, nil
}

// ClearNotifications marks all of the user's notifications cleared.
func (c *Client) ClearNotifications(ctx context.Context, userID string) error {
	var resp envelope
	if err := c.post(ctx, "/api/notifications/clear", map[string]string{"userId": userID}, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return apiError("notifications/clear", resp.Message)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func apiError(op, message string) error {
	if message == "" {
		message = "request failed"
	}
	return fmt.Errorf("%s: %s", op, message)
}
