package entities

// InteractivePayload describes an outbound interactive button message.
type InteractivePayload struct {
	Body    string              `json:"body"`
	Buttons []InteractiveButton `json:"buttons"`
}

type InteractiveButton struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
