// Package collab реализует live-сессию совместного редактирования
// поверх websocket. Пока сессия подключена, документ в движке закрыт
// для гидратации: единственный путь удаленных изменений внутрь —
// merge приходящих снапшотов.
package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/notesync/internal/crdt"
)

// Таймауты websocket соединения
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Message кадр протокола live-сессии: снапшот CRDT состояния сущности
type Message struct {
	EntityID string `json:"entity_id"`
	Snapshot []byte `json:"snapshot"`
}

// Session представляет подключенную live-сессию одного документа.
// Приходящие снапшоты вливаются в движок merge'ем, локальные правки
// отправляются через SendUpdate.
type Session struct {
	conn     *websocket.Conn
	engine   *crdt.Engine
	logger   *slog.Logger
	entityID string
	done     chan struct{}
	writeMu  sync.Mutex
	closeMu  sync.Mutex
	closed   bool
}

// Dial подключает live-сессию к серверу и регистрирует ее в движке.
// До Close документ сущности защищен от гидратации.
func Dial(ctx context.Context, wsURL, token, entityID string, engine *crdt.Engine, logger *slog.Logger) (*Session, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	engine.Attach(entityID)

	s := &Session{
		conn:     conn,
		engine:   engine,
		logger:   logger,
		entityID: entityID,
		done:     make(chan struct{}),
	}

	go s.readLoop()
	go s.pingLoop()

	logger.Info("Live session attached", "entity_id", entityID)
	return s, nil
}

// SendUpdate отправляет текущее состояние документа в сессию
func (s *Session) SendUpdate() error {
	snapshot, err := s.engine.Encode(s.entityID)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	payload, err := json.Marshal(Message{
		EntityID: s.entityID,
		Snapshot: snapshot,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Done возвращает канал, закрываемый при завершении сессии
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close завершает сессию и снимает защиту от гидратации
func (s *Session) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.engine.Detach(s.entityID)
	close(s.done)

	s.writeMu.Lock()
	deadline := time.Now().Add(writeWait)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	s.writeMu.Unlock()

	s.logger.Info("Live session detached", "entity_id", s.entityID)
	return s.conn.Close()
}

// readLoop вливает приходящие снапшоты в движок
func (s *Session) readLoop() {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Debug("Session close after read loop", "error", err)
		}
	}()

	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("Live session read failed", "entity_id", s.entityID, "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Warn("Malformed live session message", "error", err)
			continue
		}
		if msg.EntityID != s.entityID || len(msg.Snapshot) == 0 {
			continue
		}

		if err := s.engine.MergeRemote(s.entityID, msg.Snapshot); err != nil {
			s.logger.Warn("Failed to merge remote snapshot", "entity_id", s.entityID, "error", err)
		}
	}
}

// pingLoop поддерживает соединение живым
func (s *Session) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
