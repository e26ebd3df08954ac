package rabbit

const (
	// ExchangeKind - clients route by exact routing key match
	ExchangeKind string = "direct"

	// ContentTypeJSON - content type of every published payload
	ContentTypeJSON string = "application/json"
)
