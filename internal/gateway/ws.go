package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/backoffice/internal/events"
	"github.com/soyeahso/backoffice/internal/version"
)

const (
	maxPayload       = 1024 * 1024
	handshakeTimeout = 10 * time.Second
	tickIntervalMs   = 30000
)

// handshakeError is a handshake failure the client is told about before
// the socket closes.
type handshakeError struct {
	reqID string
	shape ErrorShape
	err   error
}

func (e *handshakeError) Error() string { return e.err.Error() }

func rejectConnect(reqID, code, message string, err error) *handshakeError {
	return &handshakeError{reqID: reqID, shape: ErrorShape{Code: code, Message: message}, err: err}
}

// handleWebSocket upgrades /ws, authenticates the client and serves its
// RPC requests until it disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.authLimiter.allow(r.RemoteAddr) {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("rate limited, too many failed auth attempts")
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxPayload)

	client, err := s.handshake(conn)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("handshake failed")
		s.authLimiter.recordFailure(r.RemoteAddr)
		var he *handshakeError
		if errors.As(err, &he) {
			closeWithError(conn, he.reqID, he.shape)
		}
		conn.Close()
		return
	}

	s.clients.Add(client)
	defer func() {
		s.clients.Remove(client.ConnID)
		client.Close()
	}()
	s.serveClient(r.Context(), client)
}

// handshake sends connect.challenge, reads the connect request and answers
// with HelloOK once the credentials check out.
func (s *Server) handshake(conn *websocket.Conn) (*Client, error) {
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))

	challenge, err := NewEvent("connect.challenge", map[string]any{
		"nonce": uuid.New().String(),
		"ts":    time.Now().UnixMilli(),
	}, 0)
	if err != nil {
		return nil, err
	}
	if err := conn.WriteJSON(challenge); err != nil {
		return nil, fmt.Errorf("sending challenge: %w", err)
	}

	frame, params, err := readConnect(conn)
	if err != nil {
		return nil, err
	}
	auth := Authorize(s.auth, params.Auth)
	if !auth.OK {
		return nil, rejectConnect(frame.ID, "unauthorized", auth.Reason, fmt.Errorf("auth failed: %s", auth.Reason))
	}
	conn.SetReadDeadline(time.Time{})

	client := NewClient(conn, params.Client, auth, s.log.Sub("ws"))
	client.Subscribe(params.Events)
	if err := client.Respond(frame.ID, s.hello(client.ConnID)); err != nil {
		return nil, fmt.Errorf("sending hello: %w", err)
	}

	s.log.Info().
		Str("connId", client.ConnID).
		Str("clientId", params.Client.ID).
		Str("clientVersion", params.Client.Version).
		Str("authMethod", auth.Method).
		Strs("events", params.Events).
		Msg("client authenticated")
	return client, nil
}

// readConnect reads the first client frame, which must be a connect
// request for a protocol this server speaks.
func readConnect(conn *websocket.Conn) (Frame, ConnectParams, error) {
	var frame Frame
	var params ConnectParams
	if err := conn.ReadJSON(&frame); err != nil {
		return frame, params, fmt.Errorf("reading connect: %w", err)
	}
	if frame.Type != FrameTypeRequest || frame.Method != "connect" {
		return frame, params, rejectConnect(frame.ID, "protocol_error", "expected connect request",
			fmt.Errorf("expected connect request, got type=%s method=%s", frame.Type, frame.Method))
	}
	if err := json.Unmarshal(frame.Params, &params); err != nil {
		return frame, params, rejectConnect(frame.ID, "invalid_params", "invalid connect params",
			fmt.Errorf("parsing connect params: %w", err))
	}
	if params.MaxProtocol != 0 && params.MaxProtocol < ProtocolVersion {
		return frame, params, rejectConnect(frame.ID, "protocol_error", "unsupported protocol version",
			fmt.Errorf("client max protocol %d < %d", params.MaxProtocol, ProtocolVersion))
	}
	return frame, params, nil
}

func (s *Server) hello(connID string) HelloOK {
	return HelloOK{
		Protocol: ProtocolVersion,
		Server:   ServerInfo{Version: s.version, Commit: version.Commit, ConnID: connID},
		Features: Features{
			Methods: s.Methods(),
			Events:  append([]string{"connect.challenge"}, events.Broadcast...),
		},
		Policy: ServerPolicy{MaxPayload: maxPayload, TickIntervalMs: tickIntervalMs},
	}
}

// serveClient runs RPC requests from an authenticated client one at a time.
func (s *Server) serveClient(ctx context.Context, client *Client) {
	for {
		frame, err := client.ReadFrame()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("connId", client.ConnID).Msg("client closed connection")
			} else {
				s.log.Warn().Err(err).Str("connId", client.ConnID).Msg("read error")
			}
			return
		}
		if frame.Type != FrameTypeRequest {
			s.log.Debug().Str("type", frame.Type).Msg("ignoring non-request frame")
			continue
		}
		s.dispatch(ctx, client, frame)
	}
}

func (s *Server) dispatch(ctx context.Context, client *Client, frame Frame) {
	handler, ok := s.handlers[frame.Method]
	if !ok {
		client.RespondError(frame.ID, ErrorShape{Code: "method_not_found", Message: "unknown method: " + frame.Method})
		return
	}
	handler(&RequestContext{Ctx: ctx, Client: client, Frame: frame, Server: s})
}

func closeWithError(conn *websocket.Conn, reqID string, shape ErrorShape) {
	conn.WriteJSON(NewErrorResponse(reqID, shape))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, shape.Message))
}
