package domain

// Event is an inbound gateway event. The variant set is closed: transports
// translate their wire formats into exactly the types below, so the controller
// never inspects transport payloads.
type Event interface {
	// User returns the opaque user identifier the event belongs to.
	User() string
}

// Begin starts a fresh session, discarding any previous one for the user.
type Begin struct {
	UserID string
}

// Text carries a plain text message (used for the naming step).
type Text struct {
	UserID  string
	Content string
}

// ButtonTap carries an inline-button choice. Choice may be out of range or
// negative for unparsable callback data; such taps score as incorrect.
type ButtonTap struct {
	UserID string
	Choice int
}

// Cancel ends the interaction without touching the session.
type Cancel struct {
	UserID string
}

// Reset removes the user's session entirely.
type Reset struct {
	UserID string
}

// ShowLeaderboard requests the current ranking.
type ShowLeaderboard struct {
	UserID string
}

func (e Begin) User() string           { return e.UserID }
func (e Text) User() string            { return e.UserID }
func (e ButtonTap) User() string       { return e.UserID }
func (e Cancel) User() string          { return e.UserID }
func (e Reset) User() string           { return e.UserID }
func (e ShowLeaderboard) User() string { return e.UserID }

// Action is an outbound instruction for the gateway.
type Action interface {
	// Target returns the user the action should be delivered to.
	Target() string
}

// SendMessage delivers a plain text message.
type SendMessage struct {
	UserID string
	Text   string
}

// SendQuestion delivers a question prompt with one selectable button per
// option, indexed 0..n-1.
type SendQuestion struct {
	UserID  string
	Text    string
	Options []string
}

// EditLastMessage rewrites the most recently tapped question message in place,
// used to annotate it with the verdict.
type EditLastMessage struct {
	UserID string
	Text   string
}

func (a SendMessage) Target() string     { return a.UserID }
func (a SendQuestion) Target() string    { return a.UserID }
func (a EditLastMessage) Target() string { return a.UserID }
