package kafka

import (
	"context"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	_ port.Notifier         = (*NoticesProducer)(nil)
	_ port.PaymentsRecorder = (*PaymentsProducer)(nil)
)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func newProducer(opPrefix string, op string, opts []ProducerOpt) (producer, Encoder, error) {
	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	if err := options.apply(opts...); err != nil {
		return producer{}, nil, opErr(err, op)
	}

	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
	}
	return p, options.encoder, nil
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// produceAsync hands the record to the client buffer and
// logs the delivery failure, if any.
func (p producer) produceAsync(ctx context.Context, r *kgo.Record) {
	const op = "produceAsync"

	p.cl.Produce(context.WithoutCancel(ctx), r, func(r *kgo.Record, err error) {
		if err != nil {
			slog.Error("failed to deliver record",
				"op", makeOp(p.opPrefix, op),
				"topic", r.Topic,
				"err", err,
			)
		}
	})
}

// A NoticesProducer publishes cart notices keyed by session.
//
// Delivery is asynchronous; Notify only fails on encoding.
type NoticesProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewNoticesProducer(opts ...ProducerOpt) (NoticesProducer, error) {
	const op = "NewNoticesProducer"

	opPrefix := "NoticesProducer"
	p, encoder, err := newProducer(opPrefix, op, opts)
	if err != nil {
		return NoticesProducer{}, err
	}

	return NoticesProducer{
		producer: p,
		encoder:  encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p NoticesProducer) Close() {
	p.producer.close()
}

func (p NoticesProducer) Notify(ctx context.Context, n domain.Notice) error {
	const op = "Notify"

	b, err := p.encoder.Encode(noticeToSchemaV1(n))
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	p.producer.produceAsync(ctx, &kgo.Record{Key: []byte(n.SessionID), Value: b})
	return nil
}

// A PaymentsProducer publishes payments keyed by session.
type PaymentsProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewPaymentsProducer(opts ...ProducerOpt) (PaymentsProducer, error) {
	const op = "NewPaymentsProducer"

	opPrefix := "PaymentsProducer"
	p, encoder, err := newProducer(opPrefix, op, opts)
	if err != nil {
		return PaymentsProducer{}, err
	}

	return PaymentsProducer{
		producer: p,
		encoder:  encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p PaymentsProducer) Close() {
	p.producer.close()
}

// RecordPayment returns after the broker acknowledged the payment.
func (p PaymentsProducer) RecordPayment(
	ctx context.Context, v domain.Payment,
) error {
	const op = "RecordPayment"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	b, err := p.encoder.Encode(paymentToSchemaV1(v))
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r := &kgo.Record{Key: []byte(v.SessionID), Value: b}
	if err := p.producer.produce(ctx, r); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}
