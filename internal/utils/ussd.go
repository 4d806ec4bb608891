package utils

import "strings"

// InputSeparator joins keystrokes across the turns of a USSD dialog
const InputSeparator = "*"

// LastInput returns the newest keystroke from a *-joined USSD text.
// Gateways that only send the incremental keystroke work too, since a text
// without separators is its own last token.
func LastInput(text string) string {
	if i := strings.LastIndex(text, InputSeparator); i >= 0 {
		text = text[i+len(InputSeparator):]
	}
	return strings.TrimSpace(text)
}

// NormalizePhone strips whitespace and transport prefixes from a handset number
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.TrimPrefix(phone, "tel:")
	return strings.ReplaceAll(phone, " ", "")
}
