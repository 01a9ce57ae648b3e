package graph

import "fmt"

// EmailAddress is a Graph email address with optional display name.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// Recipient wraps an email address the way Graph resources do.
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// ItemBody is a message or event body.
type ItemBody struct {
	ContentType string `json:"contentType"` // "text" or "html"
	Content     string `json:"content"`
}

// Message is an Outlook mail message.
type Message struct {
	ID               string      `json:"id"`
	Subject          string      `json:"subject"`
	From             *Recipient  `json:"from,omitempty"`
	ToRecipients     []Recipient `json:"toRecipients,omitempty"`
	ReceivedDateTime string      `json:"receivedDateTime,omitempty"`
	BodyPreview      string      `json:"bodyPreview,omitempty"`
	Body             *ItemBody   `json:"body,omitempty"`
	IsRead           bool        `json:"isRead"`
}

// DateTimeTimeZone is a Graph timestamp with an explicit time zone.
type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Location is an event location.
type Location struct {
	DisplayName string `json:"displayName,omitempty"`
}

// Attendee is an event attendee.
type Attendee struct {
	EmailAddress EmailAddress `json:"emailAddress"`
	Type         string       `json:"type,omitempty"` // "required" or "optional"
}

// Event is an Outlook calendar event.
type Event struct {
	ID          string           `json:"id,omitempty"`
	Subject     string           `json:"subject"`
	Start       DateTimeTimeZone `json:"start"`
	End         DateTimeTimeZone `json:"end"`
	Location    *Location        `json:"location,omitempty"`
	Attendees   []Attendee       `json:"attendees,omitempty"`
	Organizer   *Recipient       `json:"organizer,omitempty"`
	BodyPreview string           `json:"bodyPreview,omitempty"`
	WebLink     string           `json:"webLink,omitempty"`
}

// listResponse is the Graph collection envelope.
type listResponse[T any] struct {
	Value []T `json:"value"`
}

// apiError is the Graph error envelope.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GraphError is a downstream API failure other than an authorization
// failure.
type GraphError struct {
	Op         string
	Account    string
	StatusCode int
	Code       string
	Message    string
}

func (e *GraphError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("graph %s for account %q failed: %s: %s (status %d)",
			e.Op, e.Account, e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("graph %s for account %q failed with status %d",
		e.Op, e.Account, e.StatusCode)
}
