package domain

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeInfo    NoticeKind = "info"
)

// A Notice is a user visible confirmation emitted by the cart.
type Notice struct {
	SessionID string
	Kind      NoticeKind
	Title     string
	Body      string
}
