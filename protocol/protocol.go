package protocol

import (
	"regexp"
	"strings"
)

// Intent classifies what a message is trying to accomplish, derived from its
// body by ordered keyword checks.
type Intent string

const (
	// IntentCommand is an order or task assignment ("calculate", "search", ...).
	IntentCommand Intent = "command"
	// IntentRequest asks politely for information or action ("please", "can you", ...).
	IntentRequest Intent = "request"
	// IntentQuery is a question (body starts with a question word).
	IntentQuery Intent = "query"
	// IntentReport conveys status or findings.
	IntentReport Intent = "report"
	// IntentAcknowledgment is a Roger/Copy response.
	IntentAcknowledgment Intent = "acknowledgment"
	// IntentUnknown is everything else.
	IntentUnknown Intent = "unknown"
)

// Address is the parsed addressing metadata of one raw utterance. It is
// derived, never stored independently: re-parsing the same body always yields
// the same Address.
type Address struct {
	Sender      string `json:"sender,omitempty"`
	Recipient   string `json:"recipient,omitempty"`
	Body        string `json:"body"`
	IsOver      bool   `json:"is_over"`
	IsRoger     bool   `json:"is_roger"`
	IsCopy      bool   `json:"is_copy"`
	IsBroadcast bool   `json:"is_broadcast"`
	Intent      Intent `json:"intent"`
}

// IsAcknowledgment reports whether the message is a Roger or Copy response.
func (a Address) IsAcknowledgment() bool { return a.IsRoger || a.IsCopy }

// Pattern priority mirrors the grammar: broadcast, full directed,
// acknowledgment, short directed. A leading comma-delimited clause is always
// accepted as an address, so there is no parse failure mode.
var (
	broadcastPattern = regexp.MustCompile(
		`(?i)^(?:all\s+(?:stations|units|agents)|everyone),\s+this\s+is\s+(?P<sender>[\w\s-]+),\s+(?P<body>.+?)(?:,\s*over)?\.?$`)

	fullPattern = regexp.MustCompile(
		`(?i)^(?P<recipient>[\w\s-]+),\s+this\s+is\s+(?P<sender>[\w\s-]+),\s+(?P<body>.+?)(?:,\s*over)?\.?$`)

	ackPattern = regexp.MustCompile(
		`(?i)^(?P<ack>roger|copy),\s+(?P<body>.+?)\.?$`)

	directPattern = regexp.MustCompile(
		`(?i)^(?P<recipient>[\w\s-]+),\s+(?P<body>.+?)(?:,\s*over)?\.?$`)
)

// BroadcastKeywords are the recipient tokens that address every participant.
var BroadcastKeywords = []string{"all", "all stations", "all units", "all agents", "everyone"}

var (
	commandKeywords = []string{"calculate", "search", "find", "plan", "execute", "perform", "check"}
	requestKeywords = []string{"please", "need", "require", "request", "can you", "could you"}
	queryKeywords   = []string{"what", "when", "where", "how", "why", "which", "who"}
	reportKeywords  = []string{"report", "reporting", "status", "completed", "found"}
)

// IsBroadcastKeyword reports whether a recipient token addresses all
// participants.
func IsBroadcastKeyword(recipient string) bool {
	r := strings.ToLower(strings.TrimSpace(recipient))
	for _, kw := range BroadcastKeywords {
		if r == kw {
			return true
		}
	}
	return false
}

// Parse extracts addressing metadata from a raw message. Patterns are tried
// in priority order; if none match, the whole text is treated as unaddressed
// body content.
func Parse(raw string) Address {
	msg := strings.TrimSpace(raw)
	lower := strings.ToLower(msg)

	if m := match(broadcastPattern, msg); m != nil {
		body := strings.TrimSpace(m["body"])
		return Address{
			Sender:      strings.TrimSpace(m["sender"]),
			Recipient:   "ALL",
			Body:        body,
			IsOver:      strings.Contains(lower, "over"),
			IsBroadcast: true,
			Intent:      detectIntent(body),
		}
	}

	if m := match(fullPattern, msg); m != nil {
		recipient := strings.TrimSpace(m["recipient"])
		body := strings.TrimSpace(m["body"])
		return Address{
			Sender:      strings.TrimSpace(m["sender"]),
			Recipient:   recipient,
			Body:        body,
			IsOver:      strings.Contains(lower, "over"),
			IsBroadcast: IsBroadcastKeyword(recipient),
			Intent:      detectIntent(body),
		}
	}

	if m := match(ackPattern, msg); m != nil {
		ack := strings.ToLower(m["ack"])
		return Address{
			Body:    strings.TrimSpace(m["body"]),
			IsRoger: ack == "roger",
			IsCopy:  ack == "copy",
			Intent:  IntentAcknowledgment,
		}
	}

	if m := match(directPattern, msg); m != nil {
		recipient := strings.TrimSpace(m["recipient"])
		body := strings.TrimSpace(m["body"])
		return Address{
			Recipient:   recipient,
			Body:        body,
			IsOver:      strings.Contains(lower, "over"),
			IsBroadcast: IsBroadcastKeyword(recipient),
			Intent:      detectIntent(body),
		}
	}

	return Address{Body: msg, Intent: detectIntent(msg)}
}

// detectIntent classifies body content by keyword sets, checked in fixed
// order: query prefix, command, request, report.
func detectIntent(body string) Intent {
	lower := strings.ToLower(body)

	for _, kw := range queryKeywords {
		if strings.HasPrefix(lower, kw) {
			return IntentQuery
		}
	}
	for _, kw := range commandKeywords {
		if strings.Contains(lower, kw) {
			return IntentCommand
		}
	}
	for _, kw := range requestKeywords {
		if strings.Contains(lower, kw) {
			return IntentRequest
		}
	}
	for _, kw := range reportKeywords {
		if strings.Contains(lower, kw) {
			return IntentReport
		}
	}

	return IntentUnknown
}

// Format renders a protocol message: "[recipient,] this is sender, body[, over]."
// The result always ends with a period.
func Format(body, sender, recipient string, addOver bool) string {
	var msg string
	if recipient != "" {
		msg = recipient + ", this is " + sender + ", " + body
	} else {
		msg = sender + ", " + body
	}

	if addOver && !strings.HasSuffix(msg, "over") {
		msg += ", over"
	}
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}

	return msg
}

// FormatRoger renders a Roger acknowledgment, optionally with content.
func FormatRoger(body string) string { return formatAck("Roger", body) }

// FormatCopy renders a Copy confirmation, optionally with content.
func FormatCopy(body string) string { return formatAck("Copy", body) }

func formatAck(word, body string) string {
	msg := word
	if body != "" {
		msg += ", " + body
	}
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return msg
}

// match runs re against s and returns named groups, or nil if no match.
func match(re *regexp.Regexp, s string) map[string]string {
	sub := re.FindStringSubmatch(s)
	if sub == nil {
		return nil
	}
	groups := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if name != "" {
			groups[name] = sub[i]
		}
	}
	return groups
}
