package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

// Money values are carried as decimal strings.
const PaymentSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "payment",
	"fields" : [
		{"name": "session_id", "type": "string"},
		{"name": "order_id", "type": "string"},
		{"name": "amount", "type": "string"},
		{"name": "method", "type": "string"},
		{"name": "date", "type": {"type": "long", "logicalType": "timestamp-millis"}},
		{"name": "items", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "payment_item",
				"fields": [
					{"name": "product_id", "type": "string"},
					{"name": "name", "type": "string"},
					{"name": "price", "type": "string"},
					{"name": "image", "type": "string"},
					{"name": "quantity", "type": "int"}
				]
			}
		}}
	]
}`

const PaymentHistorySchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "payment_history",
	"fields" : [
		{"name": "payments", "type": {"type": "array", "items": ` +
	PaymentSchemaTextV1 + `}}
	]
}`

type (
	PaymentV1 struct {
		SessionID string          `avro:"session_id"`
		OrderID   string          `avro:"order_id"`
		Amount    string          `avro:"amount"`
		Method    string          `avro:"method"`
		Date      time.Time       `avro:"date"`
		Items     []PaymentItemV1 `avro:"items"`
	}

	PaymentItemV1 struct {
		ProductID string `avro:"product_id"`
		Name      string `avro:"name"`
		Price     string `avro:"price"`
		Image     string `avro:"image"`
		Quantity  int    `avro:"quantity"`
	}

	// A PaymentHistoryV1 is the payments of one session, newest first.
	PaymentHistoryV1 struct {
		Payments []PaymentV1 `avro:"payments"`
	}
)

// PaymentHistoryV1Avro returns the parsed history schema.
//
// Panics if the schema text is invalid.
func PaymentHistoryV1Avro() avro.Schema {
	return avro.MustParse(PaymentHistorySchemaTextV1)
}
