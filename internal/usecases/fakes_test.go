package usecases_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	"warelay/internal/entities"
)

// fakeDispatcher records outbound sends and hands out sequential provider IDs.
type fakeDispatcher struct {
	texts        []sentMessage
	replies      []sentMessage
	interactives []sentInteractive
	failWith     error
	nextID       int
}

type sentMessage struct {
	To        string
	Body      string
	InReplyTo string
}

type sentInteractive struct {
	To      string
	Payload entities.InteractivePayload
}

func (f *fakeDispatcher) id() string {
	f.nextID++
	return fmt.Sprintf("wamid.out.%d", f.nextID)
}

func (f *fakeDispatcher) SendText(_ context.Context, to, body string) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	f.texts = append(f.texts, sentMessage{To: to, Body: body})
	return f.id(), nil
}

func (f *fakeDispatcher) SendTextReply(_ context.Context, to, body, inReplyTo string) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	f.replies = append(f.replies, sentMessage{To: to, Body: body, InReplyTo: inReplyTo})
	return f.id(), nil
}

func (f *fakeDispatcher) SendInteractive(_ context.Context, to string, payload entities.InteractivePayload) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	f.interactives = append(f.interactives, sentInteractive{To: to, Payload: payload})
	return f.id(), nil
}

func (f *fakeDispatcher) totalSends() int {
	return len(f.texts) + len(f.replies) + len(f.interactives)
}

// fakeLedger is an in-memory MessageLedger.
type fakeLedger struct {
	rows    []*entities.MessageRecord
	nextID  int64
	failErr error
}

func (f *fakeLedger) Append(_ context.Context, rec *entities.MessageRecord) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.nextID++
	rec.ID = f.nextID
	rec.CreatedAt = time.Now().UTC()
	if rec.Phone == "" {
		rec.Phone = entities.NormalizedPhone(rec.Kind, rec.From, rec.To)
	}
	f.rows = append(f.rows, rec)
	return nil
}

func (f *fakeLedger) ReconcileStatus(ctx context.Context, providerMessageID, status string, fallback *entities.MessageRecord) (bool, error) {
	if f.failErr != nil {
		return false, f.failErr
	}
	for _, r := range f.rows {
		if r.ProviderMessageID == providerMessageID {
			s := status
			now := time.Now().UTC()
			r.Status = &s
			r.UpdatedAt = &now
			return true, nil
		}
	}
	if fallback == nil {
		return false, nil
	}
	return false, f.Append(ctx, fallback)
}

func (f *fakeLedger) Query(_ context.Context, filter entities.MessageFilter) ([]entities.MessageRecord, int, error) {
	if f.failErr != nil {
		return nil, 0, f.failErr
	}

	var matched []entities.MessageRecord
	for _, r := range f.rows {
		if filter.Phone != "" && r.Phone != filter.Phone {
			continue
		}
		if filter.Kind != "" && string(r.Kind) != filter.Kind {
			continue
		}
		if filter.Type != "" && string(r.Type) != filter.Type {
			continue
		}
		matched = append(matched, *r)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (f *fakeLedger) rowsByKind(kind entities.MessageKind) []*entities.MessageRecord {
	var out []*entities.MessageRecord
	for _, r := range f.rows {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeLedger) rowsByProviderID(id string) []*entities.MessageRecord {
	var out []*entities.MessageRecord
	for _, r := range f.rows {
		if r.ProviderMessageID == id {
			out = append(out, r)
		}
	}
	return out
}

// fakeContacts is an in-memory ContactStore with the additive-counter contract.
type fakeContacts struct {
	records map[string]*entities.ContactRecord
	failErr error
}

func newFakeContacts() *fakeContacts {
	return &fakeContacts{records: map[string]*entities.ContactRecord{}}
}

func (f *fakeContacts) Upsert(_ context.Context, phone string, d entities.ContactDelta) error {
	if f.failErr != nil {
		return f.failErr
	}
	rec, ok := f.records[phone]
	if !ok {
		rec = &entities.ContactRecord{Phone: phone}
		f.records[phone] = rec
	}
	rec.LastMessageID = d.MessageID
	rec.LastBody = d.Body
	rec.LastType = string(d.Type)
	rec.LastKind = string(d.Kind)
	rec.LastDirection = string(d.Direction)
	rec.LastSenderID = d.SenderID
	rec.LastRecipientPhone = d.RecipientPhone
	rec.LastTimestamp = d.Timestamp
	rec.TotalMessages++
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeContacts) HasPriorReply(_ context.Context, phone string) (bool, error) {
	if f.failErr != nil {
		return false, f.failErr
	}
	rec, ok := f.records[phone]
	if !ok {
		return false, nil
	}
	return rec.LastKind == string(entities.KindReply), nil
}

func (f *fakeContacts) SetName(_ context.Context, phone, name string) error {
	rec, ok := f.records[phone]
	if !ok {
		rec = &entities.ContactRecord{Phone: phone}
		f.records[phone] = rec
	}
	n := name
	rec.Name = &n
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeContacts) Get(_ context.Context, phone string) (*entities.ContactRecord, error) {
	rec, ok := f.records[phone]
	if !ok {
		return nil, fmt.Errorf("contact %s: not found", phone)
	}
	return rec, nil
}

func (f *fakeContacts) List(_ context.Context, limit, offset int) ([]entities.ContactRecord, error) {
	var out []entities.ContactRecord
	for _, rec := range f.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phone < out[j].Phone })
	return out, nil
}

// fakeConfig serves canned-reply overrides.
type fakeConfig struct {
	values map[string]string
}

func (f *fakeConfig) GetConfig(_ context.Context, key string) (string, error) {
	if f.values == nil {
		return "", nil
	}
	return f.values[key], nil
}
