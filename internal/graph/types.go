package graph

import (
	"net/http"
	"time"
)

// Message is the subset of a Graph message resource the poller reads.
type Message struct {
	ID               string     `json:"id"`
	Subject          string     `json:"subject"`
	BodyPreview      string     `json:"bodyPreview"`
	ReceivedDateTime time.Time  `json:"receivedDateTime"`
	HasAttachments   bool       `json:"hasAttachments"`
	From             *Recipient `json:"from,omitempty"`
}

// Recipient wraps an email address as Graph returns it.
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// EmailAddress is a display name and address pair.
type EmailAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Sender returns the sender's address, or "" when the message has none
// (drafts, some system messages).
func (m Message) Sender() string {
	if m.From == nil {
		return ""
	}
	return m.From.EmailAddress.Address
}

type messageList struct {
	Value    []Message `json:"value"`
	NextLink string    `json:"@odata.nextLink"`
}

type attachmentList struct {
	Value []Attachment `json:"value"`
}

// newBaseTransport returns the transport shared by the token and API requests.
func newBaseTransport() *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
