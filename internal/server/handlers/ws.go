package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/notesync/internal/server/middleware"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

// CollabHandler транслирует CRDT снапшоты между участниками live
// сессии одного документа. Сервер не интерпретирует содержимое:
// слияние выполняют клиенты, каждый у себя.
type CollabHandler struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader
	rooms    map[string]map[*collabPeer]struct{}
	mu       sync.Mutex
}

type collabPeer struct {
	conn *websocket.Conn
	send chan []byte
}

// NewCollabHandler создает новый handler live сессий
func NewCollabHandler(logger *slog.Logger) *CollabHandler {
	return &CollabHandler{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		rooms: make(map[string]map[*collabPeer]struct{}),
	}
}

// Serve обрабатывает GET /api/v1/ws/documents/{id}
func (h *CollabHandler) Serve(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("id")
	if docID == "" {
		sendError(h.logger, w, "document id is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	peer := &collabPeer{
		conn: conn,
		send: make(chan []byte, 16),
	}

	h.join(docID, peer)
	h.logger.Info("collab session joined",
		slog.String("document_id", docID),
		slog.String("user_id", middleware.UserID(r.Context())))

	go h.writeLoop(peer)
	h.readLoop(docID, peer)
}

func (h *CollabHandler) join(docID string, peer *collabPeer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[docID]
	if !ok {
		room = make(map[*collabPeer]struct{})
		h.rooms[docID] = room
	}
	room[peer] = struct{}{}
}

func (h *CollabHandler) leave(docID string, peer *collabPeer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[docID]
	if !ok {
		return
	}
	if _, member := room[peer]; member {
		delete(room, peer)
		close(peer.send)
	}
	if len(room) == 0 {
		delete(h.rooms, docID)
	}
}

// broadcast отправляет сообщение всем участникам комнаты кроме отправителя
func (h *CollabHandler) broadcast(docID string, sender *collabPeer, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for peer := range h.rooms[docID] {
		if peer == sender {
			continue
		}
		select {
		case peer.send <- message:
		default:
			// Медленный потребитель: не блокируем остальных
			h.logger.Warn("dropping collab message for slow peer", slog.String("document_id", docID))
		}
	}
}

func (h *CollabHandler) readLoop(docID string, peer *collabPeer) {
	defer func() {
		h.leave(docID, peer)
		_ = peer.conn.Close()
	}()

	_ = peer.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	peer.conn.SetPongHandler(func(string) error {
		return peer.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, message, err := peer.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("collab read failed", slog.String("document_id", docID), slog.Any("error", err))
			}
			return
		}

		h.broadcast(docID, peer, message)
	}
}

func (h *CollabHandler) writeLoop(peer *collabPeer) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = peer.conn.Close()
	}()

	for {
		select {
		case message, ok := <-peer.send:
			_ = peer.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = peer.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := peer.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = peer.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := peer.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
