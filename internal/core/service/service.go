package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/port"
)

var (
	_ port.Catalog  = (*Service)(nil)
	_ port.Cart     = (*Service)(nil)
	_ port.Checkout = (*Service)(nil)
)

// A Config used for setup [Service].
//
// HistoryProc is optional, other fields are required.
type Config struct {
	Products    port.ProductsStorage
	Images      port.ImageStorage
	Carts       *cart.Registry
	Payer       port.Payer
	Recorder    port.PaymentsRecorder
	History     port.PaymentsHistory
	HistoryProc port.PaymentHistoryProcessor
}

type Service struct {
	products    port.ProductsStorage
	images      port.ImageStorage
	carts       *cart.Registry
	payer       port.Payer
	recorder    port.PaymentsRecorder
	history     port.PaymentsHistory
	historyProc port.PaymentHistoryProcessor
	now         func() time.Time

	checkoutMu sync.Mutex
	checkouts  map[string]struct{}
}

func New(config Config) *Service {
	const op = "service.New"

	if config.Products == nil || config.Images == nil ||
		config.Carts == nil || config.Payer == nil ||
		config.Recorder == nil || config.History == nil {
		panic(fmt.Errorf("%s: missing dependency", op)) // develop mistake
	}

	return &Service{
		products:    config.Products,
		images:      config.Images,
		carts:       config.Carts,
		payer:       config.Payer,
		recorder:    config.Recorder,
		history:     config.History,
		historyProc: config.HistoryProc,
		now:         time.Now,
		checkouts:   make(map[string]struct{}),
	}
}

// Run runs the services components in separate goroutines.
//
// Blocks current goroutine while components is preparing to ready state.
func (s *Service) Run(ctx context.Context, stopFn context.CancelFunc) {
	if s.historyProc == nil {
		return
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go s.historyProc.Run(ctx, stopFn, &wg)
	wg.Wait()
}

func (s *Service) Close() {
	if s.historyProc != nil {
		s.historyProc.Close()
	}
	s.carts.CloseAll()
}
