package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"warelay/internal/entities"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v18.0"

// ProviderError reports a failed outbound send. The reply path for the
// triggering event is aborted, but webhook acknowledgment is not.
type ProviderError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("provider %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// WhatsAppBusinessClient sends messages through the Cloud API graph endpoint.
type WhatsAppBusinessClient struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
}

func NewWhatsAppBusinessClient(accessToken, phoneNumberID string) *WhatsAppBusinessClient {
	return &WhatsAppBusinessClient{
		baseURL:       defaultGraphBaseURL,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// WithBaseURL overrides the graph endpoint (used in tests).
func (w *WhatsAppBusinessClient) WithBaseURL(url string) *WhatsAppBusinessClient {
	w.baseURL = url
	return w
}

// SendText sends a plain text message and returns the provider message ID.
func (w *WhatsAppBusinessClient) SendText(ctx context.Context, to, body string) (string, error) {
	return w.post(ctx, "send text", sendTextRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             TextContent{Body: body},
	})
}

// SendTextReply sends a text message linked to an earlier message as reply context.
func (w *WhatsAppBusinessClient) SendTextReply(ctx context.Context, to, body, inReplyTo string) (string, error) {
	return w.post(ctx, "send text reply", sendTextRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             TextContent{Body: body},
		Context:          &sendContext{MessageID: inReplyTo},
	})
}

// SendInteractive sends a button message.
func (w *WhatsAppBusinessClient) SendInteractive(ctx context.Context, to string, payload entities.InteractivePayload) (string, error) {
	buttons := make([]interactiveButton, 0, len(payload.Buttons))
	for _, b := range payload.Buttons {
		buttons = append(buttons, interactiveButton{
			Type:  "reply",
			Reply: interactiveButtonRef{ID: b.ID, Title: b.Title},
		})
	}

	return w.post(ctx, "send interactive", sendInteractiveRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "interactive",
		Interactive: interactiveBody{
			Type:   "button",
			Body:   interactiveText{Text: payload.Body},
			Action: interactiveAction{Buttons: buttons},
		},
	})
}

func (w *WhatsAppBusinessClient) post(ctx context.Context, op string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", &ProviderError{Op: op, Err: err}
	}

	url := fmt.Sprintf("%s/%s/messages", w.baseURL, w.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", &ProviderError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+w.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", &ProviderError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ProviderError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var sr sendResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", &ProviderError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(sr.Messages) == 0 || sr.Messages[0].ID == "" {
		return "", &ProviderError{Op: op, Err: fmt.Errorf("missing message id in response %q", string(body))}
	}

	return sr.Messages[0].ID, nil
}
