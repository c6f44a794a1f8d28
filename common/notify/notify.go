package notify

// Notify pushes a short message about a host to an external service.
type Notify interface {
	Webhook(title string, content string) error
}
