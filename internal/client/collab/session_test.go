package collab

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notesync/internal/crdt"
)

// wsServer принимает одно websocket подключение: приходящие кадры
// складывает в incoming, кадры из outgoing отправляет клиенту
type wsServer struct {
	url      string
	incoming chan Message
	outgoing chan Message
	headers  chan http.Header
}

func startWsServer(t *testing.T) *wsServer {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := &wsServer{
		incoming: make(chan Message, 16),
		outgoing: make(chan Message, 16),
		headers:  make(chan http.Header, 1),
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.headers <- r.Header.Clone()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		go func() {
			for msg := range srv.outgoing {
				payload, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			}
		}()

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg Message
			if err := json.Unmarshal(payload, &msg); err == nil {
				srv.incoming <- msg
			}
		}
	}))
	t.Cleanup(ts.Close)

	srv.url = "ws" + strings.TrimPrefix(ts.URL, "http")
	return srv
}

func newSessionEngine(nodeID string) *crdt.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return crdt.NewEngineWithClock(logger, crdt.NewLamportClockWithNodeID(nodeID))
}

func TestSession_AttachGuardsHydration(t *testing.T) {
	srv := startWsServer(t)
	engine := newSessionEngine("node-a")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sess, err := Dial(context.Background(), srv.url, "token-1", "document_doc-1", engine, logger)
	require.NoError(t, err)

	// Токен ушел в handshake
	hdr := <-srv.headers
	assert.Equal(t, "Bearer token-1", hdr.Get("Authorization"))

	// Пока сессия жива, гидратация с диска закрыта
	assert.True(t, engine.Attached("document_doc-1"))
	err = engine.Hydrate("document_doc-1", nil, "from disk")
	assert.ErrorIs(t, err, crdt.ErrSessionAttached)

	require.NoError(t, sess.Close())

	// После Close защита снята
	assert.False(t, engine.Attached("document_doc-1"))
	require.NoError(t, engine.Hydrate("document_doc-1", nil, "from disk"))
	assert.Equal(t, "from disk", engine.Text("document_doc-1"))

	// Повторный Close безвреден
	assert.NoError(t, sess.Close())
}

func TestSession_MergesIncomingSnapshots(t *testing.T) {
	srv := startWsServer(t)
	engine := newSessionEngine("node-a")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sess, err := Dial(context.Background(), srv.url, "token-1", "document_doc-1", engine, logger)
	require.NoError(t, err)
	defer sess.Close()

	// Второй участник сессии с собственными часами
	remote := newSessionEngine("node-b")
	remote.SetText("document_doc-1", "remote line")
	snapshot, err := remote.Encode("document_doc-1")
	require.NoError(t, err)

	// Кадр чужой сущности игнорируется, свой вливается merge'ем
	srv.outgoing <- Message{EntityID: "document_other", Snapshot: snapshot}
	srv.outgoing <- Message{EntityID: "document_doc-1", Snapshot: snapshot}

	require.Eventually(t, func() bool {
		return engine.Text("document_doc-1") == "remote line"
	}, 2*time.Second, 10*time.Millisecond)

	assert.Empty(t, engine.Text("document_other"))
}

func TestSession_SendUpdateDeliversSnapshot(t *testing.T) {
	srv := startWsServer(t)
	engine := newSessionEngine("node-a")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sess, err := Dial(context.Background(), srv.url, "token-1", "document_doc-1", engine, logger)
	require.NoError(t, err)
	defer sess.Close()

	engine.SetText("document_doc-1", "local line")
	require.NoError(t, sess.SendUpdate())

	select {
	case msg := <-srv.incoming:
		assert.Equal(t, "document_doc-1", msg.EntityID)

		// Снапшот читается другим участником
		remote := newSessionEngine("node-b")
		require.NoError(t, remote.MergeRemote("document_doc-1", msg.Snapshot))
		assert.Equal(t, "local line", remote.Text("document_doc-1"))
	case <-time.After(2 * time.Second):
		t.Fatal("update did not reach the server")
	}
}
