package models

// USSDRequest is what a USSD gateway posts for every turn of a dialog
type USSDRequest struct {
	SessionID   string `json:"sessionId" form:"sessionId"`
	PhoneNumber string `json:"phoneNumber" form:"phoneNumber"`
	Text        string `json:"text" form:"text"` // full *-joined keystroke history
	ServiceCode string `json:"serviceCode" form:"serviceCode"`
}

// USSDResponse is returned to the gateway; Response starts with "CON " or "END "
type USSDResponse struct {
	Response string `json:"response"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}
