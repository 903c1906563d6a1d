package pubsub

import "authbase/internal/domain/service"

// eventAttributes are the routing attributes attached to every published email event.
func eventAttributes(event *service.EmailEvent) map[string]string {
	attributes := map[string]string{
		"event_id": event.EventID,
		"type":     string(event.Type),
		"user_id":  event.UserID,
	}
	if event.RequestID != "" {
		attributes["request_id"] = event.RequestID
	}

	return attributes
}
