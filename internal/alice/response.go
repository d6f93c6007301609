package alice

// Response is the webhook response envelope returned to the platform.
type Response struct {
	Version  string        `json:"version"`
	Session  Session       `json:"session"`
	Body     *ResponseBody `json:"response,omitempty"`
	// StartAccountLinking asks the platform to run the external OAuth
	// handshake; mutually exclusive with a spoken response body.
	StartAccountLinking *struct{} `json:"start_account_linking,omitempty"`
}

// ResponseBody is the spoken/displayed part of a turn response.
type ResponseBody struct {
	Text       string `json:"text"`
	TTS        string `json:"tts,omitempty"`
	EndSession bool   `json:"end_session"`
}

// NewResponse builds a response envelope echoing the request's protocol
// version and session, with an empty open-session body.
func NewResponse(req *Request) *Response {
	return &Response{
		Version: req.Version,
		Session: req.Session,
		Body:    &ResponseBody{},
	}
}

// SetText replaces the response text.
func (r *Response) SetText(text string) {
	r.Body.Text = text
}

// AppendText concatenates onto any text already staged this turn.
func (r *Response) AppendText(text string) {
	r.Body.Text += text
}

// SetTTS replaces the spoken-form text.
func (r *Response) SetTTS(tts string) {
	r.Body.TTS = tts
}

// AppendTTS concatenates onto the spoken-form text.
func (r *Response) AppendTTS(tts string) {
	r.Body.TTS += tts
}

// DropTTS removes any spoken-form text accumulated so far.
func (r *Response) DropTTS() {
	r.Body.TTS = ""
}

// EndSession marks the session as finished after this turn.
func (r *Response) EndSession() {
	r.Body.EndSession = true
}

// RequestAccountLinking turns the response into an account-linking redirect.
// The platform ignores the body when the directive is present, so it is
// cleared to keep the envelope unambiguous.
func (r *Response) RequestAccountLinking() {
	r.StartAccountLinking = &struct{}{}
	r.Body = nil
}
