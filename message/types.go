// Package message defines the cross-context authentication message
// schema and the router that validates and dispatches inbound messages.
//
// # Message flow
//
// Messages arrive from other browsing contexts (the login window, an
// embedded iframe, or the hosting parent frame) over a Bus. The Router
// enforces the origin allow-list, validates the schema, and dispatches
// to a Sink: manual completions resolve the active session, automatic
// ones write the credential silently.
package message

import "encoding/json"

// Inbound message ids.
const (
	// IDAuthenticationResult carries a user-driven login result.
	IDAuthenticationResult = "authenticationResult"

	// IDAlreadyAuthenticated announces a pre-existing authentication,
	// relayed by the hosting parent frame.
	IDAlreadyAuthenticated = "alreadyAuthenticated"

	// IDOpenAuthDialog asks the hosting parent frame to present its login UI.
	IDOpenAuthDialog = "openGameAuthenticationDialog"

	// IDPlayerAuthReady announces that this application is ready to
	// receive authentication messages.
	IDPlayerAuthReady = "playerAuthReady"
)

// AllowedOrigins is the default origin allow-list for inbound messages.
var AllowedOrigins = []string{
	"https://gd.games",
	"http://localhost:4000",
}

// AuthPayload is the identity carried by login messages.
type AuthPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Message is an inbound cross-context message. Body is present only for
// login messages.
type Message struct {
	Origin string       `json:"origin"`
	ID     string       `json:"id"`
	Body   *AuthPayload `json:"body,omitempty"`
}

// Outbound is a message posted to the hosting parent frame.
type Outbound struct {
	ID                string
	GameID            string
	DisableGuestLogin bool
}

// ReadyAnnouncement builds the handshake message announcing that the
// application can receive authentication messages.
func ReadyAnnouncement() Outbound {
	return Outbound{ID: IDPlayerAuthReady}
}

// OpenDialogRequest builds the request asking the parent frame to
// present its login dialog.
func OpenDialogRequest(gameID string, disableGuestLogin bool) Outbound {
	return Outbound{
		ID:                IDOpenAuthDialog,
		GameID:            gameID,
		DisableGuestLogin: disableGuestLogin,
	}
}

// MarshalJSON serializes only the fields that belong to the message id:
// the ready announcement is `{"id":...}` alone, the dialog request
// carries gameId and disableGuestLogin.
func (o Outbound) MarshalJSON() ([]byte, error) {
	if o.ID == IDOpenAuthDialog {
		return json.Marshal(struct {
			ID                string `json:"id"`
			GameID            string `json:"gameId"`
			DisableGuestLogin bool   `json:"disableGuestLogin"`
		}{o.ID, o.GameID, o.DisableGuestLogin})
	}
	return json.Marshal(struct {
		ID string `json:"id"`
	}{o.ID})
}

// Bus delivers cross-context messages. It stands in for the messaging
// surface of the hosting environment: a web bridge subscribes to window
// message events and forwards parent-frame posts; tests use an in-memory
// implementation.
type Bus interface {
	// Subscribe registers a handler for inbound messages and returns a
	// cancel function that removes it. Cancel is idempotent.
	Subscribe(fn func(Message)) (cancel func())

	// PostToParent sends a message to the hosting parent frame.
	PostToParent(msg Outbound) error
}
