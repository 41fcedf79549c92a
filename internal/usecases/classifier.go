package usecases

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"warelay/internal/entities"
	"warelay/internal/infrastructure"
)

// ErrInvalidPayload rejects a webhook body that carries neither a status nor
// a message, or is missing the envelope structure. The caller answers with a
// client error and performs no partial processing.
var ErrInvalidPayload = errors.New("invalid webhook payload")

// EventKind is the classified variant of one webhook notification.
type EventKind int

const (
	// EventSelfLoop is an inbound echo of our own outbound send. Recognized
	// and silently absorbed: no ledger write, no state change, no reply.
	EventSelfLoop EventKind = iota
	// EventIncomingText is a plain text message from a contact.
	EventIncomingText
	// EventSelectionReply is a list or button selection from a contact.
	EventSelectionReply
	// EventStatusUpdate is a delivery callback for an earlier outbound send.
	EventStatusUpdate
	// EventUnclassified is an inbound message of a type the relay does not
	// act on. It is logged and reflected in contact state, nothing more.
	EventUnclassified
)

func (k EventKind) String() string {
	switch k {
	case EventSelfLoop:
		return "self_loop"
	case EventIncomingText:
		return "incoming_text"
	case EventSelectionReply:
		return "selection_reply"
	case EventStatusUpdate:
		return "status_update"
	default:
		return "unclassified"
	}
}

// InboundEvent is the normalized result of classifying one webhook payload.
type InboundEvent struct {
	Kind EventKind

	// Message fields (incoming text / selection / unclassified)
	SenderPhone string
	MessageID   string
	MessageType string
	Body        string
	Selection   *entities.InteractiveSelection
	Timestamp   time.Time

	// Status fields
	StatusValue    string
	RecipientPhone string

	Raw []byte
}

// Classifier turns raw webhook payloads into tagged events.
type Classifier struct {
	selfPhone string // the business's own provider-assigned identity
}

func NewClassifier(selfPhone string) *Classifier {
	return &Classifier{selfPhone: selfPhone}
}

// Classify extracts at most one event from the payload. Rules, in order:
// a delivery-status object wins, then a message object; anything else is
// ErrInvalidPayload. A message from our own number is a self-loop.
func (c *Classifier) Classify(raw []byte) (*InboundEvent, error) {
	var payload infrastructure.WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrInvalidPayload
	}

	value, ok := firstChangeValue(payload)
	if !ok {
		return nil, ErrInvalidPayload
	}

	if len(value.Statuses) > 0 {
		st := value.Statuses[0]
		if st.ID == "" || st.RecipientID == "" {
			return nil, ErrInvalidPayload
		}
		return &InboundEvent{
			Kind:           EventStatusUpdate,
			MessageID:      st.ID,
			StatusValue:    st.Status,
			RecipientPhone: st.RecipientID,
			Timestamp:      parseProviderTimestamp(st.Timestamp),
			Raw:            raw,
		}, nil
	}

	if len(value.Messages) > 0 {
		return c.classifyMessage(value.Messages[0], raw)
	}

	return nil, ErrInvalidPayload
}

func (c *Classifier) classifyMessage(msg infrastructure.WebhookMessage, raw []byte) (*InboundEvent, error) {
	if msg.From == "" || msg.ID == "" {
		return nil, ErrInvalidPayload
	}

	evt := &InboundEvent{
		SenderPhone: msg.From,
		MessageID:   msg.ID,
		MessageType: msg.Type,
		Timestamp:   parseProviderTimestamp(msg.Timestamp),
		Raw:         raw,
	}

	if c.selfPhone != "" && msg.From == c.selfPhone {
		evt.Kind = EventSelfLoop
		return evt, nil
	}

	switch {
	case msg.Type == "text" && msg.Text != nil:
		evt.Kind = EventIncomingText
		evt.Body = msg.Text.Body
	case msg.Type == "interactive" && msg.Interactive != nil:
		sel := selectedReply(msg.Interactive)
		if sel == nil {
			evt.Kind = EventUnclassified
			break
		}
		evt.Kind = EventSelectionReply
		evt.Selection = &entities.InteractiveSelection{ID: sel.ID, Title: sel.Title}
	default:
		evt.Kind = EventUnclassified
	}

	return evt, nil
}

func firstChangeValue(payload infrastructure.WebhookPayload) (infrastructure.ChangeValue, bool) {
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			return change.Value, true
		}
	}
	return infrastructure.ChangeValue{}, false
}

func selectedReply(ic *infrastructure.InteractiveContent) *infrastructure.SelectedReply {
	if ic.ListReply != nil {
		return ic.ListReply
	}
	return ic.ButtonReply
}

// parseProviderTimestamp converts the provider's unix-seconds string.
// An unparseable value falls back to now rather than failing the event.
func parseProviderTimestamp(ts string) time.Time {
	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || secs <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(secs, 0).UTC()
}
