package wsock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/weft/internal/patch"
	"github.com/vk/weft/internal/transport"
)

func startEcho(t *testing.T) (clientURL string, serverConns <-chan *Conn) {
	t.Helper()
	up := NewUpgrader()
	conns := make(chan *Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		conns <- conn
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http"), conns
}

func TestSendAndReceiveAcrossConnection(t *testing.T) {
	url, conns := startEcho(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	server := <-conns
	defer server.Close()

	// Client event reaches the server.
	require.NoError(t, sendEvent(ctx, client, &transport.Event{Type: transport.EventHello}))
	ev, err := server.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, transport.EventHello, ev.Type)

	// Server batch reaches the client.
	require.NoError(t, server.Send(ctx, &transport.Batch{
		SessionID: "s1",
		Patches:   []patch.Patch{{Kind: patch.KindRemove, ID: "0@app/0@text"}},
	}))
	// The client side reads raw frames; decode one batch manually.
	_, data, err := client.ws.ReadMessage()
	require.NoError(t, err)
	batch, err := transport.DecodeBatch(data)
	require.NoError(t, err)
	assert.Equal(t, "s1", batch.SessionID)
	require.Len(t, batch.Patches, 1)
}

func TestReceiveAfterPeerCloseReturnsErrClosed(t *testing.T) {
	url, conns := startEcho(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, url)
	require.NoError(t, err)
	server := <-conns

	require.NoError(t, client.Close())
	_, err = server.Receive(ctx)
	assert.ErrorIs(t, err, transport.ErrClosed)
}

func TestReceiveUnblocksOnContextCancel(t *testing.T) {
	url, conns := startEcho(t)

	client, err := Dial(context.Background(), url)
	require.NoError(t, err)
	defer client.Close()
	server := <-conns

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := server.Receive(ctx)
		errCh <- err
	}()

	// Nothing is sent; only the cancellation can release the read.
	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Receive did not return after context cancellation")
	}
}

func TestSendOnClosedConnReturnsErrClosed(t *testing.T) {
	url, conns := startEcho(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, url)
	require.NoError(t, err)
	server := <-conns
	defer server.Close()

	require.NoError(t, client.Close())
	err = client.Send(ctx, &transport.Batch{SessionID: "s1"})
	assert.ErrorIs(t, err, transport.ErrClosed)
}

// sendEvent writes one event as a binary frame, the way a display client
// does.
func sendEvent(ctx context.Context, c *Conn, ev *transport.Event) error {
	data, err := transport.EncodeEvent(ev)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.BinaryMessage, data)
}
