package app

import "strings"

// Keyword classifies an inbound message body against the compliance
// vocabularies required by carrier review.
type Keyword int

const (
	KeywordNone Keyword = iota
	KeywordStop
	KeywordHelp
)

// Twilio enforces the actual opt-out at the platform level; we only record
// STOP messages for our own audit trail and carrier review requirements.
var stopKeywords = map[string]struct{}{
	"STOP":        {},
	"STOPALL":     {},
	"UNSUBSCRIBE": {},
	"CANCEL":      {},
	"END":         {},
	"QUIT":        {},
}

var helpKeywords = map[string]struct{}{
	"HELP": {},
	"INFO": {},
}

// HelpResponse is the fixed support text sent in reply to HELP/INFO,
// as carriers require an immediate help response.
const HelpResponse = "Entiremind: For support email support@entiremind.com or visit entiremind.com/sms-policy. " +
	"Reply STOP to unsubscribe. Msg & data rates may apply."

// ClassifyKeyword matches the body against the opt-out and help vocabularies.
// Matching is whitespace- and case-insensitive; anything else is KeywordNone.
func ClassifyKeyword(body string) Keyword {
	normalized := strings.ToUpper(strings.TrimSpace(body))
	if _, ok := stopKeywords[normalized]; ok {
		return KeywordStop
	}
	if _, ok := helpKeywords[normalized]; ok {
		return KeywordHelp
	}
	return KeywordNone
}
