// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     server
// Description: WebSocket endpoint for editors. Every request is analyzed
//              independently; results for superseded document versions are
//              dropped instead of sent.
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/msto63/structlint/internal/service"
	"github.com/msto63/structlint/pkg/core/logging"
)

// Message types
const (
	TypeLint    = "lint"
	TypeFormat  = "format"
	TypeOutline = "outline"
	TypePing    = "ping"

	TypeLintResult    = "lint_result"
	TypeFormatResult  = "format_result"
	TypeOutlineResult = "outline_result"
	TypePong          = "pong"
	TypeError         = "error"
)

const readTimeout = 120 * time.Second

// WebSocket upgrader with permissive settings for local editors
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // editors connect from arbitrary origins
	},
}

// WSMessage is a request sent by a client
type WSMessage struct {
	Type string `json:"type"` // "lint", "format", "outline", "ping"
	// ID is echoed in the response so clients can correlate
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSResponse is a message sent to the client
type WSResponse struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// WSErrorPayload represents an error payload
type WSErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OutlinePayload is the response payload of an outline request
type OutlinePayload struct {
	URI     string                 `json:"uri"`
	Version int                    `json:"version"`
	Blocks  []*service.OutlineNode `json:"blocks"`
}

// WebSocketHandler serves the live analysis endpoint
type WebSocketHandler struct {
	svc    *service.Service
	logger *logging.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(svc *service.Service) *WebSocketHandler {
	return &WebSocketHandler{
		svc:    svc,
		logger: logging.New("websocket"),
	}
}

// ServeHTTP handles WebSocket upgrade and connections
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	h.handleConnection(r.Context(), conn)
}

// session is the state of one connection
type session struct {
	conn     *websocket.Conn
	writeMu  sync.Mutex
	versions *versionTracker
}

func (s *session) send(resp WSResponse) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(resp)
}

// handleConnection reads requests until the client disconnects
func (h *WebSocketHandler) handleConnection(parent context.Context, conn *websocket.Conn) {
	defer conn.Close()

	h.logger.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	sess := &session{conn: conn, versions: newVersionTracker()}
	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(parent)
	defer func() {
		cancel()
		wg.Wait()
	}()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", "error", err)
			} else {
				h.logger.Info("WebSocket connection closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		switch msg.Type {
		case TypePing:
			h.sendResponse(sess, WSResponse{Type: TypePong, ID: msg.ID})

		case TypeLint, TypeFormat, TypeOutline:
			var doc service.Document
			if err := json.Unmarshal(msg.Payload, &doc); err != nil {
				h.sendError(sess, msg.ID, "invalid_payload", "Invalid document payload: "+err.Error())
				continue
			}
			sess.versions.observe(doc.URI, doc.Version)

			wg.Add(1)
			go func() {
				defer wg.Done()
				h.handleDocument(ctx, sess, msg, doc)
			}()

		default:
			h.sendError(sess, msg.ID, "unknown_type", "Unknown message type: "+msg.Type)
		}
	}
}

// handleDocument runs one request and sends its result unless a newer
// version of the document arrived meanwhile
func (h *WebSocketHandler) handleDocument(ctx context.Context, sess *session, msg WSMessage, doc service.Document) {
	var (
		resp WSResponse
		err  error
	)
	resp.ID = msg.ID

	switch msg.Type {
	case TypeLint:
		resp.Type = TypeLintResult
		resp.Payload, err = h.svc.Lint(ctx, doc)
	case TypeFormat:
		resp.Type = TypeFormatResult
		resp.Payload, err = h.svc.Format(ctx, doc)
	case TypeOutline:
		var blocks []*service.OutlineNode
		resp.Type = TypeOutlineResult
		blocks, err = h.svc.Outline(ctx, doc)
		resp.Payload = OutlinePayload{URI: doc.URI, Version: doc.Version, Blocks: blocks}
	}
	if err != nil {
		if ctx.Err() == nil {
			h.sendError(sess, msg.ID, "analysis_failed", err.Error())
		}
		return
	}

	if !sess.versions.current(doc.URI, doc.Version) {
		h.logger.Debug("Dropping stale result", "uri", doc.URI, "version", doc.Version, "type", msg.Type)
		return
	}
	h.sendResponse(sess, resp)
}

// sendResponse sends a response message via WebSocket
func (h *WebSocketHandler) sendResponse(sess *session, resp WSResponse) {
	if err := sess.send(resp); err != nil {
		h.logger.Warn("Failed to send WebSocket response", "type", resp.Type, "error", err)
	}
}

// sendError sends an error message via WebSocket
func (h *WebSocketHandler) sendError(sess *session, id, code, message string) {
	h.sendResponse(sess, WSResponse{
		Type:    TypeError,
		ID:      id,
		Payload: WSErrorPayload{Code: code, Message: message},
	})
}

// versionTracker remembers the newest version seen per document
type versionTracker struct {
	mu     sync.Mutex
	latest map[string]int
}

func newVersionTracker() *versionTracker {
	return &versionTracker{latest: make(map[string]int)}
}

func (t *versionTracker) observe(uri string, version int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.latest[uri]; !ok || version > v {
		t.latest[uri] = version
	}
}

// current reports whether no newer version than version has been observed
func (t *versionTracker) current(uri string, version int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return version >= t.latest[uri]
}
