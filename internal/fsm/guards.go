package fsm

// OnButton matches a button press with the given callback key.
func OnButton(key string) Guard {
	return func(ev Event) bool {
		return ev.Type == EventButton && ev.Button == key
	}
}

// OnButtonPayload matches a button press with the given key and exact payload.
func OnButtonPayload(key, payload string) Guard {
	return func(ev Event) bool {
		return ev.Type == EventButton && ev.Button == key && ev.Payload == payload
	}
}

// OnText matches any plain text message.
func OnText() Guard {
	return func(ev Event) bool {
		return ev.Type == EventMessage
	}
}

// OnDocument matches a document upload.
func OnDocument() Guard {
	return func(ev Event) bool {
		return ev.Type == EventDocument
	}
}

// OnAnyMessage matches text messages and documents alike; handlers use it
// to re-prompt when the content type is wrong.
func OnAnyMessage() Guard {
	return func(ev Event) bool {
		return ev.Type == EventMessage || ev.Type == EventDocument
	}
}

// OnPayment matches a confirmed payment event.
func OnPayment() Guard {
	return func(ev Event) bool {
		return ev.Type == EventPayment
	}
}
