// Package schema holds the avro records published to the broker
// and the serdes binding them to the schema registry.
package schema

import "github.com/hamba/avro/v2"

// AvroEncodeFn marshals values in plain avro, without
// the schema registry header. Used for goka table values.
func AvroEncodeFn(s avro.Schema) func(v any) ([]byte, error) {
	return func(v any) ([]byte, error) {
		return avro.Marshal(s, v)
	}
}

func AvroDecodeFn(s avro.Schema) func([]byte, any) error {
	return func(data []byte, v any) error {
		return avro.Unmarshal(s, data, v)
	}
}
