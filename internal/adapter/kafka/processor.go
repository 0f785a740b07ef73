package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
)

var _ port.PaymentHistoryProcessor = (*PaymentHistoryProcessor)(nil)

// MaxHistoryLen bounds the payments kept per session.
const MaxHistoryLen = 50

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "runProc"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// A paymentEventCodec used for serde [schema.PaymentV1]
// in the schema registry wire format.
type paymentEventCodec struct {
	serde Serde
}

func newPaymentEventCodec(s Serde) paymentEventCodec {
	return paymentEventCodec{s}
}

func (c paymentEventCodec) Encode(v any) ([]byte, error) {
	const op = "paymentEventCodec.Encode"
	if _, ok := v.(schema.PaymentV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c paymentEventCodec) Decode(data []byte) (any, error) {
	const op = "paymentEventCodec.Decode"
	var s schema.PaymentV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A paymentHistoryCodec used for serde [schema.PaymentHistoryV1]
// in the group table. Table values are plain avro.
type paymentHistoryCodec struct {
	encodeFn func(any) ([]byte, error)
	decodeFn func([]byte, any) error
}

func newPaymentHistoryCodec() paymentHistoryCodec {
	s := schema.PaymentHistoryV1Avro()
	return paymentHistoryCodec{
		encodeFn: schema.AvroEncodeFn(s),
		decodeFn: schema.AvroDecodeFn(s),
	}
}

func (c paymentHistoryCodec) Encode(v any) ([]byte, error) {
	const op = "paymentHistoryCodec.Encode"
	if _, ok := v.(schema.PaymentHistoryV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.encodeFn(v)
}

func (c paymentHistoryCodec) Decode(data []byte) (any, error) {
	const op = "paymentHistoryCodec.Decode"
	var s schema.PaymentHistoryV1
	if err := c.decodeFn(data, &s); err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

var _ goka.Codec = paymentHistoryCodec{}

// A PaymentHistoryConfig used for setup [PaymentHistoryProcessor]
// and [PaymentHistoryView].
//
// TLSConfig is optional, other fields are required.
type PaymentHistoryConfig struct {
	SeedBrokers   []string
	PaymentsTopic string
	Group         string
	PaymentSerde  Serde
	TLSConfig     *tls.Config
}

// A PaymentHistoryProcessor folds the payments stream
// into the per session history group table.
type PaymentHistoryProcessor struct {
	opPrefix string
	proc     processor
}

func NewPaymentHistoryProc(
	config PaymentHistoryConfig,
) (*PaymentHistoryProcessor, error) {
	const op = "NewPaymentHistoryProc"

	applyTLS(config.TLSConfig)

	p := PaymentHistoryProcessor{opPrefix: "PaymentHistoryProcessor"}

	gg := goka.DefineGroup(goka.Group(config.Group),
		goka.Input(
			goka.Stream(config.PaymentsTopic),
			newPaymentEventCodec(config.PaymentSerde),
			p.processFn,
		),
		goka.Persist(newPaymentHistoryCodec()),
	)

	gp, err := goka.NewProcessor(config.SeedBrokers, gg, withNonlogProcOpt())
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{
		opPrefix: p.opPrefix,
		gp:       gp,
	}
	return &p, nil
}

func (p *PaymentHistoryProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *PaymentHistoryProcessor) Close() {
	p.proc.close()
}

func (p *PaymentHistoryProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"
	log := slog.With("op", makeOp(p.opPrefix, op), "sessionID", ctx.Key())

	history, err := foldPayment(ctx.Value(), msg)
	if err != nil {
		log.Error("skip message", "err", err)
		return
	}
	ctx.SetValue(history)
	log.Info("payment added to history", "nPayments", len(history.Payments))
}

// foldPayment puts the payment in front of the stored history,
// dropping the oldest entries beyond [MaxHistoryLen].
func foldPayment(stored any, msg any) (schema.PaymentHistoryV1, error) {
	payment, ok := msg.(schema.PaymentV1)
	if !ok {
		return schema.PaymentHistoryV1{}, ErrInvalidValueType
	}

	var history schema.PaymentHistoryV1
	if stored != nil {
		history, ok = stored.(schema.PaymentHistoryV1)
		if !ok {
			return schema.PaymentHistoryV1{}, ErrInvalidValueType
		}
	}

	payments := make([]schema.PaymentV1, 0, len(history.Payments)+1)
	payments = append(payments, payment)
	payments = append(payments, history.Payments...)
	if len(payments) > MaxHistoryLen {
		payments = payments[:MaxHistoryLen]
	}
	return schema.PaymentHistoryV1{Payments: payments}, nil
}
