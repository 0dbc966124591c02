package service

// EventPublisher fans out change notifications to live clients.
// Satisfied by *ws.Hub.
type EventPublisher interface {
	Publish(topic, eventType string, payload interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
