// Package server exposes the webhook HTTP surface.
//
// Two inbound payload shapes are accepted on POST /: a routed form carrying a
// pre-extracted command, and the raw gateway form forwarded straight from the
// WhatsApp webhook. Raw payloads are filtered before processing: only text
// messages from the configured admin group that start with a command prefix
// reach the pipeline; everything else is acknowledged and ignored.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/genechuang/picklebot/common/trace"
	"github.com/genechuang/picklebot/internal/picklebot/bot"
	"github.com/genechuang/picklebot/internal/picklebot/command"
	"github.com/genechuang/picklebot/internal/picklebot/intent"
	"github.com/genechuang/picklebot/internal/picklebot/observability"
)

// Server handles webhook requests.
type Server struct {
	bot          *bot.Bot
	adminGroupID string
}

// New creates a Server. An empty adminGroupID disables the group filter for
// raw gateway payloads.
func New(b *bot.Bot, adminGroupID string) *Server {
	return &Server{bot: b, adminGroupID: adminGroupID}
}

// Handler builds the routed handler chain: trace injection, panic recovery,
// and CORS around the mux router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/", s.handleOptions).Methods(http.MethodOptions)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         3600,
	})

	return s.withTrace(s.withRecovery(c.Handler(r)))
}

// webhookRequest is the union of both accepted payload shapes. A non-nil
// Command field selects the routed form.
type webhookRequest struct {
	Command    *string `json:"command"`
	ChatID     string  `json:"chatId"`
	Sender     string  `json:"sender"`
	SenderName string  `json:"senderName"`
	DryRun     bool    `json:"dry_run"`

	SenderData *struct {
		ChatID string `json:"chatId"`
	} `json:"senderData"`
	MessageData *struct {
		TypeMessage     string `json:"typeMessage"`
		TextMessageData struct {
			TextMessage string `json:"textMessage"`
		} `json:"textMessageData"`
	} `json:"messageData"`
}

// processedResponse is the success envelope. ResponseMessage is only
// populated on dry runs.
type processedResponse struct {
	Status            string        `json:"status"`
	Intent            intent.Intent `json:"intent"`
	NeedsConfirmation bool          `json:"needs_confirmation"`
	DryRun            bool          `json:"dry_run"`
	ResponseMessage   string        `json:"response_message,omitempty"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	in, reason := s.inboundFrom(req)
	if reason != "" {
		observability.WithTrace(r.Context()).Info("webhook ignored", "reason", reason)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": reason})
		return
	}

	result := s.bot.Dispatch(r.Context(), in)

	resp := processedResponse{
		Status:            "processed",
		Intent:            result.Intent,
		NeedsConfirmation: result.NeedsConfirmation,
		DryRun:            result.DryRun,
	}
	if result.DryRun {
		resp.ResponseMessage = result.Message
	}
	writeJSON(w, http.StatusOK, resp)
}

// inboundFrom translates a webhook payload into a pipeline Inbound, or
// returns a non-empty reason when the payload should be acknowledged but
// ignored.
func (s *Server) inboundFrom(req webhookRequest) (bot.Inbound, string) {
	if req.Command != nil {
		// Routed requests without a chat id deliver to the admin group.
		chatID := req.ChatID
		if chatID == "" {
			chatID = s.adminGroupID
		}
		return bot.Inbound{
			Text:           *req.Command,
			Sender:         req.Sender,
			ChatID:         chatID,
			DryRunOverride: req.DryRun,
		}, ""
	}

	chatID := ""
	if req.SenderData != nil {
		chatID = req.SenderData.ChatID
	}
	if s.adminGroupID != "" && chatID != s.adminGroupID {
		return bot.Inbound{}, "not_admin_group"
	}

	if req.MessageData == nil || req.MessageData.TypeMessage != "textMessage" {
		return bot.Inbound{}, "not_text_message"
	}

	text := req.MessageData.TextMessageData.TextMessage
	if !command.HasPrefix(text) {
		return bot.Inbound{}, "not_command"
	}

	return bot.Inbound{Text: text, ChatID: chatID}, ""
}

// handleOptions answers bare OPTIONS requests (no preflight headers, so the
// CORS middleware passes them through) with 204 plus the CORS headers.
func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withTrace stamps every request context with a fresh trace ID.
func (s *Server) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := trace.WithTraceID(r.Context(), trace.GenerateID())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withRecovery converts panics into a generic 500 so no internal detail
// leaks to the caller.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				observability.WithTrace(r.Context()).Error("panic in request handler", "panic", rec)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
