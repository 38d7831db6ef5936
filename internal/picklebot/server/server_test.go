package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/genechuang/picklebot/internal/picklebot/bot"
	"github.com/genechuang/picklebot/internal/picklebot/handlers"
	"github.com/genechuang/picklebot/internal/picklebot/intent"
	"github.com/genechuang/picklebot/internal/picklebot/roster"
	"github.com/genechuang/picklebot/internal/picklebot/server"
)

const adminGroup = "120363000000000000@g.us"

type recordingSender struct {
	sends   int
	chatIDs []string
}

func (r *recordingSender) Send(_ context.Context, chatID, _ string) error {
	r.sends++
	r.chatIDs = append(r.chatIDs, chatID)
	return nil
}

func newHandler(t *testing.T) (http.Handler, *recordingSender) {
	t.Helper()
	sender := &recordingSender{}
	registry := handlers.New(roster.Unconfigured{}, nil, handlers.StatusInfo{})
	b := bot.New(intent.NewClassifier(nil), registry, sender)
	return server.New(b, adminGroup).Handler(), sender
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestRoutedCommand(t *testing.T) {
	h, sender := newHandler(t)
	w := post(t, h, `{"command": "/pb help", "chatId": "`+adminGroup+`"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	got := decode(t, w)
	if got["status"] != "processed" {
		t.Errorf("status field: got %v", got["status"])
	}
	if got["intent"] != "help" {
		t.Errorf("intent: got %v", got["intent"])
	}
	if got["dry_run"] != false {
		t.Errorf("dry_run: got %v", got["dry_run"])
	}
	if _, present := got["response_message"]; present {
		t.Error("response_message must be omitted when not a dry run")
	}
	if sender.sends != 1 {
		t.Errorf("sends: got %d, want 1", sender.sends)
	}
}

// A routed request without a chat id still delivers, defaulting to the
// admin group.
func TestRoutedCommandDefaultsToAdminGroup(t *testing.T) {
	h, sender := newHandler(t)
	w := post(t, h, `{"command": "/pb help"}`)

	got := decode(t, w)
	if got["status"] != "processed" {
		t.Fatalf("status field: got %v", got["status"])
	}
	if sender.sends != 1 {
		t.Fatalf("sends: got %d, want 1", sender.sends)
	}
	if sender.chatIDs[0] != adminGroup {
		t.Errorf("chat ID: got %q, want admin group", sender.chatIDs[0])
	}
}

func TestRoutedDryRunEchoesMessage(t *testing.T) {
	h, sender := newHandler(t)
	w := post(t, h, `{"command": "/pb deadbeats", "chatId": "`+adminGroup+`", "dry_run": true}`)

	got := decode(t, w)
	if got["dry_run"] != true {
		t.Errorf("dry_run: got %v", got["dry_run"])
	}
	msg, _ := got["response_message"].(string)
	if !strings.HasPrefix(msg, "[DRY RUN]") {
		t.Errorf("response_message: got %q", msg)
	}
	if sender.sends != 0 {
		t.Errorf("dry run must not send, got %d sends", sender.sends)
	}
}

func TestRawGatewayCommand(t *testing.T) {
	h, sender := newHandler(t)
	w := post(t, h, `{
		"senderData": {"chatId": "`+adminGroup+`"},
		"messageData": {
			"typeMessage": "textMessage",
			"textMessageData": {"textMessage": "/pb status"}
		}
	}`)

	got := decode(t, w)
	if got["status"] != "processed" {
		t.Fatalf("status field: got %v (%s)", got["status"], w.Body.String())
	}
	if got["intent"] != "show_status" {
		t.Errorf("intent: got %v", got["intent"])
	}
	if sender.sends != 1 {
		t.Errorf("sends: got %d, want 1", sender.sends)
	}
}

func TestRawGatewayIgnored(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		reason string
	}{
		{
			name: "wrong group",
			body: `{
				"senderData": {"chatId": "999@g.us"},
				"messageData": {
					"typeMessage": "textMessage",
					"textMessageData": {"textMessage": "/pb help"}
				}
			}`,
			reason: "not_admin_group",
		},
		{
			name: "non-text message",
			body: `{
				"senderData": {"chatId": "` + adminGroup + `"},
				"messageData": {"typeMessage": "imageMessage"}
			}`,
			reason: "not_text_message",
		},
		{
			name: "missing message data",
			body: `{
				"senderData": {"chatId": "` + adminGroup + `"}
			}`,
			reason: "not_text_message",
		},
		{
			// The group filter outranks the text-type check.
			name: "non-text message from foreign group",
			body: `{
				"senderData": {"chatId": "999@g.us"},
				"messageData": {"typeMessage": "imageMessage"}
			}`,
			reason: "not_admin_group",
		},
		{
			name: "no command prefix",
			body: `{
				"senderData": {"chatId": "` + adminGroup + `"},
				"messageData": {
					"typeMessage": "textMessage",
					"textMessageData": {"textMessage": "see you tuesday"}
				}
			}`,
			reason: "not_command",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, sender := newHandler(t)
			w := post(t, h, tc.body)

			if w.Code != http.StatusOK {
				t.Fatalf("status: got %d", w.Code)
			}
			got := decode(t, w)
			if got["status"] != "ignored" {
				t.Errorf("status field: got %v", got["status"])
			}
			if got["reason"] != tc.reason {
				t.Errorf("reason: got %v, want %s", got["reason"], tc.reason)
			}
			if sender.sends != 0 {
				t.Errorf("ignored payload must not send, got %d", sender.sends)
			}
		})
	}
}

func TestBadJSON(t *testing.T) {
	h, _ := newHandler(t)
	w := post(t, h, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
	got := decode(t, w)
	if got["error"] == "" {
		t.Error("expected error field")
	}
}

// Bare OPTIONS requests (no preflight headers) get 204 with CORS headers.
func TestBareOptions(t *testing.T) {
	h, _ := newHandler(t)
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "POST, OPTIONS" {
		t.Errorf("allow-methods: got %q", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", w.Code)
	}
}

func TestHealth(t *testing.T) {
	h, _ := newHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	got := decode(t, w)
	if got["status"] != "ok" {
		t.Errorf("got %v", got["status"])
	}
}
