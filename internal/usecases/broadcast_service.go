package usecases

import (
	"context"
	"log/slog"

	"warelay/internal/entities"
	"warelay/internal/interfaces"

	"golang.org/x/time/rate"
)

// BroadcastService sends one text to many recipients, paced by a rate
// limiter so the provider's send quota is respected. Each send is logged
// as its own kind=broadcast ledger row.
type BroadcastService struct {
	dispatcher interfaces.Dispatcher
	ledger     interfaces.MessageLedger
	limiter    *rate.Limiter
	selfPhone  string
}

// BroadcastResult summarizes one broadcast run.
type BroadcastResult struct {
	Sent   int               `json:"sent"`
	Failed int               `json:"failed"`
	Errors map[string]string `json:"errors,omitempty"` // phone -> reason
}

func NewBroadcastService(dispatcher interfaces.Dispatcher, ledger interfaces.MessageLedger, perSecond float64, selfPhone string) *BroadcastService {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &BroadcastService{
		dispatcher: dispatcher,
		ledger:     ledger,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
		selfPhone:  selfPhone,
	}
}

// Send delivers body to each phone in order. A failed send is recorded and
// the run continues with the remaining recipients; ctx cancellation stops
// the run early.
func (s *BroadcastService) Send(ctx context.Context, phones []string, body string) (BroadcastResult, error) {
	result := BroadcastResult{Errors: map[string]string{}}

	for _, phone := range phones {
		if err := s.limiter.Wait(ctx); err != nil {
			return result, err
		}

		providerID, err := s.dispatcher.SendText(ctx, phone, body)
		if err != nil {
			result.Failed++
			result.Errors[phone] = err.Error()
			slog.Error("broadcast send failed", "phone", phone, "error", err)
			continue
		}
		result.Sent++

		b := body
		rec := &entities.MessageRecord{
			Kind:              entities.KindBroadcast,
			Type:              entities.TypeText,
			From:              s.selfPhone,
			To:                phone,
			Body:              &b,
			ProviderMessageID: providerID,
		}
		if err := s.ledger.Append(ctx, rec); err != nil {
			slog.Error("broadcast ledger append failed", "phone", phone, "error", err)
		}
	}

	if len(result.Errors) == 0 {
		result.Errors = nil
	}
	return result, nil
}
