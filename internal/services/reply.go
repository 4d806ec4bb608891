package services

// ReplyKind tells the gateway whether the dialog stays open
type ReplyKind int

const (
	// Continue keeps the dialog open for more input
	Continue ReplyKind = iota
	// Terminate closes the dialog
	Terminate
)

// Wire prefixes understood by USSD gateways
const (
	PrefixContinue  = "CON "
	PrefixTerminate = "END "
)

// Reply is a screen to show on the handset
type Reply struct {
	Kind ReplyKind
	Text string
}

// Con builds a reply that awaits more input
func Con(text string) Reply {
	return Reply{Kind: Continue, Text: text}
}

// End builds a reply that closes the dialog
func End(text string) Reply {
	return Reply{Kind: Terminate, Text: text}
}

// IsTerminal reports whether the reply ends the dialog
func (r Reply) IsTerminal() bool {
	return r.Kind == Terminate
}

// String serializes the reply with its CON/END prefix
func (r Reply) String() string {
	if r.Kind == Terminate {
		return PrefixTerminate + r.Text
	}
	return PrefixContinue + r.Text
}

// InvalidRequestReply is shown when a request lacks sessionId or phoneNumber
func InvalidRequestReply() Reply {
	return End(invalidRequestScreen)
}
