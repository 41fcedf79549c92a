package infrastructure_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"warelay/internal/entities"
	"warelay/internal/infrastructure"
)

func acceptedResponse(w http.ResponseWriter, id string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"messaging_product": "whatsapp",
		"messages":          []map[string]string{{"id": id}},
	})
}

func TestSendText_ReturnsProviderMessageID(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/pnid/messages" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer token123" {
			t.Fatalf("unexpected auth header: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		acceptedResponse(w, "wamid.sent.1")
	}))
	t.Cleanup(srv.Close)

	client := infrastructure.NewWhatsAppBusinessClient("token123", "pnid").WithBaseURL(srv.URL)

	id, err := client.SendText(context.Background(), "361234567", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "wamid.sent.1" {
		t.Fatalf("expected provider id, got %q", id)
	}
	if got["type"] != "text" || got["to"] != "361234567" {
		t.Fatalf("unexpected request body: %+v", got)
	}
	if _, hasContext := got["context"]; hasContext {
		t.Fatal("plain send must not carry reply context")
	}
}

func TestSendTextReply_CarriesContext(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		acceptedResponse(w, "wamid.sent.2")
	}))
	t.Cleanup(srv.Close)

	client := infrastructure.NewWhatsAppBusinessClient("token123", "pnid").WithBaseURL(srv.URL)

	if _, err := client.SendTextReply(context.Background(), "361234567", "welcome", "wamid.orig"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	replyCtx, ok := got["context"].(map[string]any)
	if !ok || replyCtx["message_id"] != "wamid.orig" {
		t.Fatalf("expected reply context with message_id, got %+v", got["context"])
	}
}

func TestSendInteractive_BuildsButtonPayload(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		acceptedResponse(w, "wamid.sent.3")
	}))
	t.Cleanup(srv.Close)

	client := infrastructure.NewWhatsAppBusinessClient("token123", "pnid").WithBaseURL(srv.URL)

	payload := entities.InteractivePayload{
		Body: "Pick one",
		Buttons: []entities.InteractiveButton{
			{ID: "a", Title: "Option A"},
			{ID: "b", Title: "Option B"},
		},
	}
	if _, err := client.SendInteractive(context.Background(), "361234567", payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got["type"] != "interactive" {
		t.Fatalf("expected interactive type, got %+v", got["type"])
	}
	interactive := got["interactive"].(map[string]any)
	if interactive["type"] != "button" {
		t.Fatalf("expected button interactive, got %+v", interactive["type"])
	}
	buttons := interactive["action"].(map[string]any)["buttons"].([]any)
	if len(buttons) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(buttons))
	}
}

func TestSend_ProviderErrorOnBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "invalid token"}}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	client := infrastructure.NewWhatsAppBusinessClient("bad", "pnid").WithBaseURL(srv.URL)

	_, err := client.SendText(context.Background(), "361234567", "hello")
	var pe *infrastructure.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %T: %v", err, err)
	}
	if pe.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", pe.StatusCode)
	}
}

func TestSend_ProviderErrorOnMissingMessageID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messaging_product": "whatsapp", "messages": []}`))
	}))
	t.Cleanup(srv.Close)

	client := infrastructure.NewWhatsAppBusinessClient("token123", "pnid").WithBaseURL(srv.URL)

	_, err := client.SendText(context.Background(), "361234567", "hello")
	var pe *infrastructure.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %T: %v", err, err)
	}
}
