package schema

const NoticeSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "notice",
	"fields" : [
		{"name": "session_id", "type": "string"},
		{"name": "kind", "type": "string"},
		{"name": "title", "type": "string"},
		{"name": "body", "type": "string"}
	]
}`

type NoticeV1 struct {
	SessionID string `avro:"session_id"`
	Kind      string `avro:"kind"`
	Title     string `avro:"title"`
	Body      string `avro:"body"`
}
