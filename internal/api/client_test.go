package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChatList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat-list" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"chats": []map[string]any{
				{"id": "g@g.us", "name": "Ops Crew", "isGroup": true, "lastMessage": "ok"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	chats, err := c.ChatList(context.Background())
	if err != nil {
		t.Fatalf("ChatList() error = %v", err)
	}
	if len(chats) != 1 || chats[0].ID != "g@g.us" || chats[0].Name != "Ops Crew" {
		t.Errorf("chats = %+v", chats)
	}
}

func TestChatMessagesRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("chatId"); got != "g@g.us" {
			t.Errorf("chatId = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"messages": []map[string]any{{"id": "m1", "body": "hi", "timestamp": 1000, "sent": 0}},
		})
	}))
	defer srv.Close()

	msgs, err := NewClient(srv.URL).ChatMessages(context.Background(), "g@g.us")
	if err != nil {
		t.Fatalf("ChatMessages() error = %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Errorf("msgs = %+v", msgs)
	}
}

func TestSendText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["chatId"] != "g@g.us" || body["messageText"] != "hello" {
			t.Errorf("body = %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "messageId": "srv-1"})
	}))
	defer srv.Close()

	id, err := NewClient(srv.URL).SendText(context.Background(), "g@g.us", "hello")
	if err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if id != "srv-1" {
		t.Errorf("server msg id = %q, want srv-1", id)
	}
}

func TestSaveNotification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SaveNotificationRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.UserID != "17" || req.Title == "" {
			t.Errorf("req = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	err := NewClient(srv.URL).SaveNotification(context.Background(), SaveNotificationRequest{
		UserID: "17", Title: "Ops Crew - somebody", Description: "hello", ChatID: "g@g.us",
	})
	if err != nil {
		t.Errorf("SaveNotification() error = %v", err)
	}
}

func TestBackendFailureSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Missing fields"})
	}))
	defer srv.Close()

	err := NewClient(srv.URL).SaveNotification(context.Background(), SaveNotificationRequest{})
	if err == nil {
		t.Fatal("expected error for success=false")
	}
}

func TestClearNotifications(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/notifications/clear" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).ClearNotifications(context.Background(), "17"); err != nil {
		t.Errorf("ClearNotifications() error = %v", err)
	}
}
