package channel

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"

	autherrors "github.com/byteness/playauth/errors"
	"github.com/byteness/playauth/message"
)

// Socket wire format. The first exchange obtains a connection id; the
// provider routes the eventual login result back over the same socket.
const (
	socketActionGetConnectionID = "getConnectionId"
	socketTypeConnectionID      = "connectionId"
	socketTypeAuthResult        = "authenticationResult"
)

type socketRequest struct {
	Action string `json:"action"`
}

type socketFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type connectionIDData struct {
	ConnectionID string `json:"connectionId"`
}

// SocketStrategy runs the login flow over a persistent socket to the
// provider's play-session endpoint. Used on native mobile and on the
// desktop shell. The login page is only presented once the handshake
// has produced a connection id.
type SocketStrategy struct {
	// Dialer performs the websocket dial. Nil means websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// Present displays the connection-id-bearing login URL on whatever
	// surface fits the platform: an external browser open, or a native
	// overlay. Presenters that can detect user dismissal report it
	// through resolve; fire-and-forget presenters just ignore it.
	Present func(url string, resolve func(Outcome))
}

func (s *SocketStrategy) Open(ctx context.Context, req OpenRequest) Outcome {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, _, err := dialer.DialContext(ctx, req.SocketURL, nil)
	if err != nil {
		logFailure(autherrors.ErrCodeTransportSocketFailed,
			"error while connecting to the authentication server", err)
		return OutcomeErrored
	}
	defer conn.Close()
	log.Printf("Opened authentication socket connection.")

	// Ask for the connection id; the login page cannot open without it.
	if err := conn.WriteJSON(socketRequest{Action: socketActionGetConnectionID}); err != nil {
		logFailure(autherrors.ErrCodeTransportSocketFailed,
			"error requesting socket connection id", err)
		return OutcomeErrored
	}

	r := newResolver()
	go s.readLoop(conn, req, r)

	outcome := r.wait(ctx)
	// Closing the socket also unblocks the read loop.
	conn.Close()
	return outcome
}

func (s *SocketStrategy) readLoop(conn *websocket.Conn, req OpenRequest, r *resolver) {
	for {
		var frame socketFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				// Socket closed before any result: a dismissal, not a failure.
				log.Printf("Authentication socket connection closed.")
				r.resolve(OutcomeDismissed)
			} else {
				logFailure(autherrors.ErrCodeTransportSocketFailed,
					"error in authentication socket connection", err)
				r.resolve(OutcomeErrored)
			}
			return
		}

		switch frame.Type {
		case socketTypeConnectionID:
			var data connectionIDData
			if err := json.Unmarshal(frame.Data, &data); err != nil || data.ConnectionID == "" {
				logFailure(autherrors.ErrCodeTransportConnectionIDEmpty,
					"no socket connectionId received", err)
				r.resolve(OutcomeErrored)
				return
			}
			log.Printf("Socket connectionId received.")
			url := req.AuthURL(data.ConnectionID)
			if s.Present != nil {
				// Presenters may block (native overlays do); keep reading.
				go s.Present(url, r.resolve)
			}

		case socketTypeAuthResult:
			var payload message.AuthPayload
			if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.Token == "" {
				log.Printf("Protocol error in authentication socket message: malformed %s frame", frame.Type)
				r.resolve(OutcomeErrored)
				return
			}
			if req.Login != nil {
				req.Login(payload)
			}
			r.resolve(OutcomeLogged)
			return
		}
	}
}
