package greenapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/genechuang/picklebot/internal/picklebot/greenapi"
)

func TestSend(t *testing.T) {
	var gotPath string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"idMessage": "msg-1"})
	}))
	defer srv.Close()

	c := greenapi.New(greenapi.Config{
		InstanceID: "1101000001",
		APIToken:   "token-abc",
		BaseURL:    srv.URL,
	})

	if err := c.Send(context.Background(), "123@g.us", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/waInstance1101000001/sendMessage/token-abc" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotBody["chatId"] != "123@g.us" || gotBody["message"] != "hello" {
		t.Errorf("body: got %v", gotBody)
	}
}

func TestSendUnconfigured(t *testing.T) {
	c := greenapi.New(greenapi.Config{})
	err := c.Send(context.Background(), "123@g.us", "hello")
	if !errors.Is(err, greenapi.ErrUnconfigured) {
		t.Errorf("got %v, want ErrUnconfigured", err)
	}
}

func TestSendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := greenapi.New(greenapi.Config{
		InstanceID: "1101000001",
		APIToken:   "token-abc",
		BaseURL:    srv.URL,
	})
	if err := c.Send(context.Background(), "123@g.us", "hello"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
