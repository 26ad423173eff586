package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"chat-gateway/internal/auth"
	"chat-gateway/internal/fabric"
	"chat-gateway/internal/logger"
	"chat-gateway/internal/store"
)

// Close codes clients can branch on: re-login vs request access.
const (
	CloseUnauthorized = 4001
	CloseForbidden    = 4003
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Validate origin in production
		return true
	},
}

// Gateway bridges room connections to the broadcast fabric and the
// persistence layer.
type Gateway struct {
	store    store.Store
	fabric   fabric.Fabric
	resolver auth.Resolver
}

func NewGateway(st store.Store, fab fabric.Fabric, resolver auth.Resolver) *Gateway {
	return &Gateway{store: st, fabric: fab, resolver: resolver}
}

// ServeWS handles /ws/chat/group/{room_id}. The connection is upgraded
// first so rejections can carry a close code, then authenticated, then
// authorized against the room's participant set.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room_id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("[WS] Failed to upgrade connection", zap.String("room", roomID), zap.Error(err))
		return
	}

	identity, err := g.resolver.Resolve(r)
	if err != nil {
		logger.Warn("[WS] Authentication failed", zap.String("room", roomID),
			zap.String("from", r.RemoteAddr), zap.Error(err))
		reject(conn, CloseUnauthorized, "authentication required")
		return
	}

	ok, err := g.authorize(r, roomID, identity.UserID)
	if err != nil {
		logger.Error("[WS] Authorization check failed", zap.String("user", identity.UserID),
			zap.String("room", roomID), zap.Error(err))
		reject(conn, websocket.CloseInternalServerErr, "authorization check failed")
		return
	}
	if !ok {
		logger.Warn("[WS] Not a room participant", zap.String("user", identity.UserID),
			zap.String("room", roomID))
		reject(conn, CloseForbidden, "not a room participant")
		return
	}

	// Session tokens carry the username claim; fall back to the stored
	// profile when it is absent.
	if identity.Username == "" {
		if user, uerr := g.store.GetUser(r.Context(), identity.UserID); uerr == nil {
			identity.Username = user.Username
		}
	}

	client := newClient(conn, roomID, *identity)

	if err := g.fabric.Join(r.Context(), roomID, client); err != nil {
		logger.Error("[WS] Failed to join group", zap.String("user", identity.UserID),
			zap.String("room", roomID), zap.Error(err))
		reject(conn, websocket.CloseInternalServerErr, "join failed")
		return
	}

	logger.Info("[WS] Connection authorized", zap.String("user", identity.UserID),
		zap.String("username", identity.Username), zap.String("room", roomID))

	go client.WritePump()
	go client.ReadPump(g)
}

// authorize reports whether the room exists and the user is in its current
// participant set. A missing room is not an error, just a denial.
func (g *Gateway) authorize(r *http.Request, roomID, userID string) (bool, error) {
	_, err := g.store.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return false, nil
		}
		return false, err
	}
	return g.store.IsParticipant(r.Context(), roomID, userID)
}

func reject(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(writeWait)
	msg := websocket.FormatCloseMessage(code, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		logger.Debug("[WS] Failed to write close frame", zap.Error(err))
	}
	conn.Close()
}
