package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt creates the [kgo.Client] producing to the topic.
//
// tlsConfig is optional.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, tlsConfig *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
			kgo.AllowAutoTopicCreation(),
		}
		if tlsConfig != nil {
			kopts = append(kopts, kgo.DialTLSConfig(tlsConfig))
		}

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

// ProducerWithClientOpt sets an already created client.
func ProducerWithClientOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		if cl == nil {
			return errors.New("producer client is nil")
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

func (o *producerOpts) apply(opts ...ProducerOpt) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

type ProducerClient interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

// applyTLS switches the goka global sarama config to TLS.
func applyTLS(tlsConfig *tls.Config) {
	if tlsConfig == nil {
		return
	}
	cfg := goka.DefaultConfig()
	cfg.Net.TLS.Enable = true
	cfg.Net.TLS.Config = tlsConfig
	goka.ReplaceGlobalConfig(cfg)
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func noticeToSchemaV1(v domain.Notice) (s schema.NoticeV1) {
	s.SessionID = v.SessionID
	s.Kind = string(v.Kind)
	s.Title = v.Title
	s.Body = v.Body
	return
}

func paymentToSchemaV1(v domain.Payment) (s schema.PaymentV1) {
	s.SessionID = v.SessionID
	s.OrderID = v.OrderID
	s.Amount = v.Amount.String()
	s.Method = v.Method
	s.Date = v.Date

	s.Items = make([]schema.PaymentItemV1, len(v.Items))
	for i, li := range v.Items {
		s.Items[i].ProductID = li.Product.ID
		s.Items[i].Name = li.Product.Name
		s.Items[i].Price = li.Product.Price.String()
		s.Items[i].Image = li.Product.Image
		s.Items[i].Quantity = li.Quantity
	}
	return
}

func paymentFromSchemaV1(s schema.PaymentV1) (domain.Payment, error) {
	amount, err := decimal.NewFromString(s.Amount)
	if err != nil {
		return domain.Payment{}, err
	}

	v := domain.Payment{
		SessionID: s.SessionID,
		OrderID:   s.OrderID,
		Amount:    amount,
		Method:    s.Method,
		Date:      s.Date,
		Items:     make([]domain.LineItem, len(s.Items)),
	}
	for i, item := range s.Items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return domain.Payment{}, err
		}
		v.Items[i] = domain.LineItem{
			Product: domain.ProductRef{
				ID:    item.ProductID,
				Name:  item.Name,
				Price: price,
				Image: item.Image,
			},
			Quantity: item.Quantity,
		}
	}
	return v, nil
}
