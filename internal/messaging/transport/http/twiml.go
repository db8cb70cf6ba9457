package http

import "encoding/xml"

// twimlResponse is Twilio's markup reply envelope. An empty envelope tells
// Twilio "no auto-reply".
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

// TwiML renders a reply envelope containing the given message body.
func TwiML(message string) string {
	b, err := xml.Marshal(twimlResponse{Message: message})
	if err != nil {
		// Marshalling a two-field struct cannot realistically fail; keep the
		// webhook contract intact regardless.
		return xml.Header + "<Response></Response>"
	}
	return xml.Header + string(b)
}

// EmptyTwiML renders the no-auto-reply envelope.
func EmptyTwiML() string {
	return TwiML("")
}
