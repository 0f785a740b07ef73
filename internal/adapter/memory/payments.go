package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var (
	_ port.PaymentsRecorder = (*Payments)(nil)
	_ port.PaymentsHistory  = (*Payments)(nil)
)

// Payments keeps the payment history of every session in memory.
type Payments struct {
	mu        sync.RWMutex
	bySession map[string][]domain.Payment
}

func NewPayments() *Payments {
	return &Payments{bySession: make(map[string][]domain.Payment)}
}

func (p *Payments) RecordPayment(_ context.Context, v domain.Payment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bySession[v.SessionID] = append(p.bySession[v.SessionID], v)
	return nil
}

// PaymentHistory returns the session payments, newest first.
func (p *Payments) PaymentHistory(
	_ context.Context, sessionID string,
) ([]domain.Payment, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	history := slices.Clone(p.bySession[sessionID])
	slices.Reverse(history)
	if history == nil {
		history = []domain.Payment{}
	}
	return history, nil
}
