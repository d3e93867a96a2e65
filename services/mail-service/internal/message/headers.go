package message

import (
	"regexp"
	"strings"

	"github.com/stoik/mailview/internal/models"
)

// Header names read from provider payloads.
const (
	HeaderFrom    = "From"
	HeaderTo      = "To"
	HeaderCc      = "Cc"
	HeaderBcc     = "Bcc"
	HeaderSubject = "Subject"
)

var (
	namedAddress = regexp.MustCompile(`^(.*?)\s*<([^<>]*)>\s*$`)
	// Listing pages use the looser greedy form: everything inside the
	// outermost brackets is the address.
	bracketAddress = regexp.MustCompile(`<(.*)>`)
)

// ParseRecipients parses a From/To/Cc/Bcc header into one record per address.
// Commas inside double-quoted display names do not split entries. Malformed
// input degrades to best effort and never fails.
func ParseRecipients(value string) []models.Recipient {
	entries := splitAddressList(value)
	recipients := make([]models.Recipient, 0, len(entries))
	for _, entry := range entries {
		recipients = append(recipients, parseRecipient(entry))
	}
	return recipients
}

// splitAddressList splits on commas outside double quotes and drops empty entries.
func splitAddressList(value string) []string {
	var (
		entries []string
		current strings.Builder
		quoted  bool
		escaped bool
	)
	flush := func() {
		if entry := strings.TrimSpace(current.String()); entry != "" {
			entries = append(entries, entry)
		}
		current.Reset()
	}

	for _, r := range value {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && quoted:
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			flush()
			continue
		}
		current.WriteRune(r)
	}
	flush()
	return entries
}

func parseRecipient(entry string) models.Recipient {
	m := namedAddress.FindStringSubmatch(entry)
	if m == nil {
		return models.Recipient{Name: entry, Email: entry}
	}
	email := strings.TrimSpace(m[2])
	name := unquote(strings.TrimSpace(m[1]))
	if name == "" {
		name = email
	}
	if email == "" {
		email = name
	}
	return models.Recipient{Name: name, Email: email}
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
		s = strings.ReplaceAll(s, `\"`, `"`)
		s = strings.ReplaceAll(s, `\\`, `\`)
	}
	return strings.TrimSpace(s)
}

// ParseSender extracts the sender of a listing row from a From header value.
// With no bracketed address the whole value is both name and address.
func ParseSender(value string) models.Recipient {
	m := bracketAddress.FindStringSubmatchIndex(value)
	if m == nil {
		return models.Recipient{Name: value, Email: value}
	}
	email := value[m[2]:m[3]]
	name := unquote(strings.TrimSpace(value[:m[0]] + value[m[1]:]))
	if name == "" {
		name = email
	}
	return models.Recipient{Name: name, Email: email}
}
