package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"warelay/internal/entities"
	"warelay/internal/interfaces"
)

// Config keys for operator-tunable reply texts.
const (
	ConfigKeyWelcome      = "welcome_message"
	ConfigKeyCallToAction = "cta_message"
)

// Compiled-in defaults used when bot_config has no override.
const (
	defaultWelcome      = "👋 Thanks for reaching out! This is our virtual assistant — an agent will get back to you shortly."
	defaultCallToAction = "Good to hear from you again! How can we help?"
)

// MessageService reconciles classified webhook events into the message
// ledger and the per-contact conversation state, replying where the
// decision rules call for it.
//
// Ordering within one event is strict: send, then ledger, then contact
// upsert. A provider failure aborts the reply path and propagates; a
// persistence failure is logged and sibling writes continue.
type MessageService struct {
	classifier *Classifier
	dispatcher interfaces.Dispatcher
	ledger     interfaces.MessageLedger
	contacts   interfaces.ContactStore
	config     interfaces.ConfigStore

	selfPhone string
}

func NewMessageService(
	classifier *Classifier,
	dispatcher interfaces.Dispatcher,
	ledger interfaces.MessageLedger,
	contacts interfaces.ContactStore,
	config interfaces.ConfigStore,
	selfPhone string,
) *MessageService {
	return &MessageService{
		classifier: classifier,
		dispatcher: dispatcher,
		ledger:     ledger,
		contacts:   contacts,
		config:     config,
		selfPhone:  selfPhone,
	}
}

// ProcessEvent handles one webhook delivery to completion.
// Returns ErrInvalidPayload for malformed bodies and the provider error when
// an outbound send fails; every other failure is absorbed after logging.
func (s *MessageService) ProcessEvent(ctx context.Context, raw []byte) error {
	evt, err := s.classifier.Classify(raw)
	if err != nil {
		return err
	}

	slog.Debug("webhook event classified", "kind", evt.Kind.String())

	switch evt.Kind {
	case EventSelfLoop:
		// Echo of our own send. Absorb it or the relay replies to itself forever.
		slog.Debug("self loop absorbed", "message_id", evt.MessageID)
		return nil
	case EventStatusUpdate:
		return s.handleStatus(ctx, evt)
	case EventIncomingText:
		return s.handleIncomingText(ctx, evt)
	case EventSelectionReply:
		return s.handleSelection(ctx, evt)
	default:
		return s.handleUnclassified(ctx, evt)
	}
}

// handleIncomingText decides between the first-contact welcome and the
// returning-contact call to action. The sole signal is the stored lastKind,
// read fresh so the decision survives restarts.
func (s *MessageService) handleIncomingText(ctx context.Context, evt *InboundEvent) error {
	prior, err := s.contacts.HasPriorReply(ctx, evt.SenderPhone)
	if err != nil {
		// Treat an unreadable state as a first contact rather than dropping the reply.
		slog.Error("read conversation state failed", "phone", evt.SenderPhone, "error", err)
		prior = false
	}

	var (
		replyID   string
		replyBody string
		replyType entities.MessageType
		replyCtx  *string
	)

	if !prior {
		replyBody = s.configText(ctx, ConfigKeyWelcome, defaultWelcome)
		replyType = entities.TypeText
		replyID, err = s.dispatcher.SendTextReply(ctx, evt.SenderPhone, replyBody, evt.MessageID)
		replyCtx = &evt.MessageID
	} else {
		payload := s.callToActionPayload(ctx)
		replyBody = payload.Body
		replyType = entities.TypeInteractive
		replyID, err = s.dispatcher.SendInteractive(ctx, evt.SenderPhone, payload)
	}
	if err != nil {
		return err
	}

	s.appendLedger(ctx, &entities.MessageRecord{
		Kind:              entities.KindIncoming,
		Type:              entities.TypeText,
		From:              evt.SenderPhone,
		To:                s.selfPhone,
		Body:              &evt.Body,
		ProviderMessageID: evt.MessageID,
		Raw:               evt.Raw,
	})
	s.appendLedger(ctx, &entities.MessageRecord{
		Kind:              entities.KindReply,
		Type:              replyType,
		From:              s.selfPhone,
		To:                evt.SenderPhone,
		Body:              &replyBody,
		ProviderMessageID: replyID,
		ReplyToMessageID:  replyCtx,
	})

	s.upsertContact(ctx, evt.SenderPhone, entities.ContactDelta{
		MessageID:      replyID,
		Body:           replyBody,
		Type:           replyType,
		Kind:           entities.KindReply,
		Direction:      entities.DirectionReply,
		SenderID:       s.selfPhone,
		RecipientPhone: evt.SenderPhone,
		Timestamp:      evt.Timestamp,
	})
	return nil
}

// handleSelection acknowledges a list or button selection with a plain text
// confirmation, regardless of prior conversation state.
func (s *MessageService) handleSelection(ctx context.Context, evt *InboundEvent) error {
	ack := fmt.Sprintf("You selected the option with ID %s - Title %s",
		evt.Selection.ID, evt.Selection.Title)

	replyID, err := s.dispatcher.SendText(ctx, evt.SenderPhone, ack)
	if err != nil {
		return err
	}

	s.appendLedger(ctx, &entities.MessageRecord{
		Kind:              entities.KindIncoming,
		Type:              entities.TypeInteractive,
		From:              evt.SenderPhone,
		To:                s.selfPhone,
		ProviderMessageID: evt.MessageID,
		Selection:         evt.Selection,
		Raw:               evt.Raw,
	})
	s.appendLedger(ctx, &entities.MessageRecord{
		Kind:              entities.KindReply,
		Type:              entities.TypeText,
		From:              s.selfPhone,
		To:                evt.SenderPhone,
		Body:              &ack,
		ProviderMessageID: replyID,
	})

	s.upsertContact(ctx, evt.SenderPhone, entities.ContactDelta{
		MessageID:      replyID,
		Body:           ack,
		Type:           entities.TypeText,
		Kind:           entities.KindReply,
		Direction:      entities.DirectionReply,
		SenderID:       s.selfPhone,
		RecipientPhone: evt.SenderPhone,
		Timestamp:      evt.Timestamp,
	})
	return nil
}

// handleStatus reconciles a delivery callback into the ledger and contact
// state. Status events never trigger an outbound send.
func (s *MessageService) handleStatus(ctx context.Context, evt *InboundEvent) error {
	status := evt.StatusValue
	fallback := &entities.MessageRecord{
		Kind:              entities.KindStatus,
		From:              s.selfPhone,
		To:                evt.RecipientPhone,
		ProviderMessageID: evt.MessageID,
		Status:            &status,
		Raw:               evt.Raw,
	}

	updated, err := s.ledger.ReconcileStatus(ctx, evt.MessageID, status, fallback)
	if err != nil {
		slog.Error("status reconciliation failed", "provider_message_id", evt.MessageID, "error", err)
	} else if !updated {
		slog.Info("status for unknown message appended", "provider_message_id", evt.MessageID, "status", status)
	}

	// A status is something we receive about an earlier outbound send.
	s.upsertContact(ctx, evt.RecipientPhone, entities.ContactDelta{
		MessageID:      evt.MessageID,
		Type:           entities.TypeOther,
		Kind:           entities.KindStatus,
		Direction:      entities.DirectionIncoming,
		SenderID:       s.selfPhone,
		RecipientPhone: evt.RecipientPhone,
		Timestamp:      evt.Timestamp,
	})
	return nil
}

// handleUnclassified does ledger and state bookkeeping only; no reply is
// attempted for message types the relay does not act on.
func (s *MessageService) handleUnclassified(ctx context.Context, evt *InboundEvent) error {
	slog.Info("unclassified message type logged", "type", evt.MessageType, "from", evt.SenderPhone)

	s.appendLedger(ctx, &entities.MessageRecord{
		Kind:              entities.KindIncoming,
		Type:              entities.TypeOther,
		From:              evt.SenderPhone,
		To:                s.selfPhone,
		ProviderMessageID: evt.MessageID,
		Raw:               evt.Raw,
	})

	s.upsertContact(ctx, evt.SenderPhone, entities.ContactDelta{
		MessageID:      evt.MessageID,
		Type:           entities.TypeOther,
		Kind:           entities.KindIncoming,
		Direction:      entities.DirectionIncoming,
		SenderID:       evt.SenderPhone,
		RecipientPhone: s.selfPhone,
		Timestamp:      evt.Timestamp,
	})
	return nil
}

// appendLedger writes one ledger row, best effort. The ledger is an audit
// trail, not the source of truth for reply decisions, so a failed write is
// logged and processing continues.
func (s *MessageService) appendLedger(ctx context.Context, rec *entities.MessageRecord) {
	if err := s.ledger.Append(ctx, rec); err != nil {
		slog.Error("ledger append failed", "kind", rec.Kind, "provider_message_id", rec.ProviderMessageID, "error", err)
	}
}

func (s *MessageService) upsertContact(ctx context.Context, phone string, d entities.ContactDelta) {
	if err := s.contacts.Upsert(ctx, phone, d); err != nil {
		slog.Error("contact upsert failed", "phone", phone, "error", err)
	}
}

// configText reads an operator override for a canned reply, falling back to
// the compiled-in default.
func (s *MessageService) configText(ctx context.Context, key, def string) string {
	if s.config == nil {
		return def
	}
	if v, err := s.config.GetConfig(ctx, key); err == nil && v != "" {
		return v
	}
	return def
}

func (s *MessageService) callToActionPayload(ctx context.Context) entities.InteractivePayload {
	return entities.InteractivePayload{
		Body: s.configText(ctx, ConfigKeyCallToAction, defaultCallToAction),
		Buttons: []entities.InteractiveButton{
			{ID: "visit_website", Title: "Visit our website"},
			{ID: "contact_us", Title: "Talk to a person"},
		},
	}
}
