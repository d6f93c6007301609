// Package alice implements the Yandex Dialogs webhook protocol: the request
// and response envelopes and the normalized view of a single turn that the
// dialog processor consumes.
package alice

import "strings"

// Request is the webhook request envelope sent by the platform on every turn.
type Request struct {
	Version string  `json:"version"`
	Session Session `json:"session"`
	Request Message `json:"request"`
	// AccountLinkingComplete is present when the user has just finished the
	// external OAuth handshake started by a previous turn.
	AccountLinkingComplete *struct{} `json:"account_linking_complete_event,omitempty"`
}

// Session identifies the dialog session and, when the user is authenticated,
// the user identity.
type Session struct {
	New       bool         `json:"new"`
	SessionID string       `json:"session_id"`
	MessageID int          `json:"message_id"`
	SkillID   string       `json:"skill_id,omitempty"`
	User      *User        `json:"user,omitempty"`
	App       *Application `json:"application,omitempty"`
}

// User carries the stable user identity and, after account linking, the
// OAuth access token for external services.
type User struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token,omitempty"`
}

// Application identifies the device instance; present even for anonymous users.
type Application struct {
	ApplicationID string `json:"application_id"`
}

// Message is the spoken or typed input of one turn.
type Message struct {
	Command           string `json:"command"`
	OriginalUtterance string `json:"original_utterance"`
	Type              string `json:"type"`
	NLU               NLU    `json:"nlu"`
}

// NLU holds the intents recognized by the platform's language understanding.
type NLU struct {
	Intents map[string]Intent `json:"intents"`
}

// Intent is one recognized intent with its extracted slots.
type Intent struct {
	Slots map[string]Slot `json:"slots"`
}

// Slot is a single extracted slot value.
type Slot struct {
	Type  string    `json:"type"`
	Value SlotValue `json:"value"`
}

// SlotValue is the payload of a YANDEX.FIO slot.
type SlotValue struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Intent names the skill is registered for.
const (
	IntentNewMember = "team.newmember"
	IntentDelMember = "team.delmember"
)

// Turn is the normalized view of one incoming request. It never touches
// storage; all accessors are pure reads of the envelope.
type Turn struct {
	req *Request
}

// NewTurn wraps a decoded request.
func NewTurn(req *Request) *Turn {
	return &Turn{req: req}
}

// NewResponse builds the response envelope for this turn, echoing the
// protocol version and session.
func (t *Turn) NewResponse() *Response {
	return NewResponse(t.req)
}

// IsAuthorized reports whether the turn carries an authenticated user
// identity. Anonymous device sessions have no user block.
func (t *Turn) IsAuthorized() bool {
	return t.req.Session.User != nil && t.req.Session.User.UserID != ""
}

// UserID returns the platform user identifier. Empty for anonymous turns.
func (t *Turn) UserID() string {
	if t.req.Session.User == nil {
		return ""
	}
	return t.req.Session.User.UserID
}

// AccessToken returns the OAuth token obtained via account linking, if any.
func (t *Turn) AccessToken() string {
	if t.req.Session.User == nil {
		return ""
	}
	return t.req.Session.User.AccessToken
}

// IsNewSession reports whether the platform opened a fresh session with this
// turn. Distinct from "first turn ever": a known user starts a new session
// every time they reopen the skill.
func (t *Turn) IsNewSession() bool {
	return t.req.Session.New
}

// IsAccountLinkingComplete reports whether this turn is the post-OAuth
// callback turn.
func (t *Turn) IsAccountLinkingComplete() bool {
	return t.req.AccountLinkingComplete != nil
}

// Command returns the lowercased, whitespace-normalized utterance used for
// pattern matching.
func (t *Turn) Command() string {
	return strings.Join(strings.Fields(strings.ToLower(t.req.Request.Command)), " ")
}

// OriginalUtterance returns the raw utterance with case and punctuation
// preserved, for commands that carry case-sensitive arguments.
func (t *Turn) OriginalUtterance() string {
	return t.req.Request.OriginalUtterance
}

// Intents returns the intents recognized by the platform this turn. A missing
// key means the intent was not recognized.
func (t *Turn) Intents() map[string]Intent {
	return t.req.Request.NLU.Intents
}
