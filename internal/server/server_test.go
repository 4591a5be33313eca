package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/mcparam/internal/catalog"
	"github.com/muurk/mcparam/internal/param"
	"github.com/muurk/mcparam/internal/protocol"
	"github.com/muurk/mcparam/internal/store"
)

func newTestServer(t *testing.T) (*Server, *param.Registry, *httptest.Server) {
	t.Helper()
	reg := param.NewRegistry()
	require.NoError(t, catalog.Register(reg))

	srv, err := New(Config{}, reg)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, reg, ts
}

func dial(t *testing.T, srv *Server, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	before := srv.SessionCount()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return srv.SessionCount() > before }, time.Second, 5*time.Millisecond)
	return conn
}

func send(t *testing.T, conn *websocket.Conn, id uint32, msg protocol.Message) {
	t.Helper()
	data, err := protocol.Encode(id, msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, data))
}

func recv(t *testing.T, conn *websocket.Conn) (*protocol.Frame, protocol.Message) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	mt, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, mt)
	f, msg, err := protocol.Decode(data)
	require.NoError(t, err)
	return f, msg
}

// recvAck reads until the ack for id, returning it and any broadcasts seen first
func recvAck(t *testing.T, conn *websocket.Conn, id uint32) (*protocol.AckMessage, []*protocol.ValueMessage) {
	t.Helper()
	var broadcasts []*protocol.ValueMessage
	for {
		f, msg := recv(t, conn)
		if f.MessageID == protocol.MsgIDBroadcast {
			if vm, ok := msg.(*protocol.ValueMessage); ok {
				broadcasts = append(broadcasts, vm)
				continue
			}
		}
		require.Equal(t, id, f.MessageID)
		ack, ok := msg.(*protocol.AckMessage)
		require.True(t, ok, "got %s", msg)
		return ack, broadcasts
	}
}

func TestRequestList(t *testing.T) {
	srv, reg, ts := newTestServer(t)
	conn := dial(t, srv, ts)

	send(t, conn, 7, &protocol.RequestListMessage{})
	for i := 0; i < reg.Len(); i++ {
		f, msg := recv(t, conn)
		assert.Equal(t, uint32(7), f.MessageID)
		vm := msg.(*protocol.ValueMessage)
		assert.Equal(t, uint16(i), vm.Index)
		assert.Equal(t, uint16(reg.Len()), vm.Count)
		if i == 0 {
			assert.Equal(t, catalog.RollP, vm.Name)
			assert.True(t, vm.Value.Equal(param.Float(6.5)))
			assert.Equal(t, param.StateDefault, vm.State)
		}
	}
}

func bulkDefinitions(n int) []param.Definition {
	defs := make([]param.Definition, n)
	for i := range defs {
		defs[i] = param.Definition{
			Name:    fmt.Sprintf("BULK_%05d", i),
			Type:    param.TypeFloat,
			Default: param.Float(float32(i)),
		}
	}
	return defs
}

func TestRequestListLargerThanQueue(t *testing.T) {
	srv, reg, ts := newTestServer(t)
	require.NoError(t, reg.RegisterAll(bulkDefinitions(4*sendBuffer)))
	conn := dial(t, srv, ts)

	send(t, conn, 9, &protocol.RequestListMessage{})

	// Broadcasts from local changes interleave with the list without
	// costing the listing session its connection.
	for i := 0; i < 10; i++ {
		require.NoError(t, reg.Set(catalog.YawP, param.Float(float32(i)/4)))
	}

	var listed, broadcasts int
	for listed < reg.Len() {
		f, msg := recv(t, conn)
		vm, ok := msg.(*protocol.ValueMessage)
		require.True(t, ok, "got %s", msg)
		if f.MessageID == protocol.MsgIDBroadcast {
			broadcasts++
			continue
		}
		require.Equal(t, uint32(9), f.MessageID)
		assert.Equal(t, uint16(listed), vm.Index)
		assert.Equal(t, uint16(reg.Len()), vm.Count)
		listed++
	}
	assert.LessOrEqual(t, broadcasts, 10)
	assert.Equal(t, 1, srv.SessionCount())

	// The session still answers requests after the list.
	send(t, conn, 10, protocol.NewRequestRead("BULK_00300"))
	for {
		f, msg := recv(t, conn)
		if f.MessageID == protocol.MsgIDBroadcast {
			continue
		}
		vm := msg.(*protocol.ValueMessage)
		assert.True(t, vm.Value.Equal(param.Float(300)))
		break
	}
}

func TestNewRejectsRegistryBeyondLinkCount(t *testing.T) {
	reg := param.NewRegistry()
	require.NoError(t, reg.RegisterAll(bulkDefinitions(protocol.MaxParams+1)))

	_, err := New(Config{}, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 65535")
}

func TestSetRejectsAndBroadcasts(t *testing.T) {
	srv, reg, ts := newTestServer(t)
	conn := dial(t, srv, ts)
	other := dial(t, srv, ts)

	// Out of range: rejected, stored value untouched, nothing broadcast.
	send(t, conn, 1, &protocol.SetMessage{Name: catalog.RollP, Value: param.Float(13)})
	ack, seen := recvAck(t, conn, 1)
	assert.Equal(t, protocol.AckOutOfRange, ack.Code)
	assert.Empty(t, seen)
	assert.True(t, param.IsOutOfRange(ack.Err()))
	roll, _ := reg.Float(catalog.RollP)
	assert.Equal(t, float32(6.5), roll)

	send(t, conn, 2, &protocol.SetMessage{Name: catalog.RollP, Value: param.Float(7)})
	ack, seen = recvAck(t, conn, 2)
	assert.Equal(t, protocol.AckOK, ack.Code)
	require.Len(t, seen, 1)
	assert.Equal(t, param.StateModified, seen[0].State)
	assert.Equal(t, uint32(1), seen[0].Changes)

	// The other session only sees the broadcast.
	f, msg := recv(t, other)
	assert.Equal(t, uint32(protocol.MsgIDBroadcast), f.MessageID)
	assert.True(t, msg.(*protocol.ValueMessage).Value.Equal(param.Float(7)))
}

func TestLocalChangesAreBroadcast(t *testing.T) {
	srv, reg, ts := newTestServer(t)
	conn := dial(t, srv, ts)

	require.NoError(t, catalog.SetMode(reg, catalog.ModeConstantTilt))

	f, msg := recv(t, conn)
	assert.Equal(t, uint32(protocol.MsgIDBroadcast), f.MessageID)
	vm := msg.(*protocol.ValueMessage)
	assert.Equal(t, catalog.AttMode, vm.Name)
	assert.True(t, vm.Value.Equal(param.Int32(int32(catalog.ModeConstantTilt))))
}

func TestImportClamps(t *testing.T) {
	srv, reg, ts := newTestServer(t)
	conn := dial(t, srv, ts)

	send(t, conn, 3, &protocol.SetMessage{Name: catalog.RollP, Value: param.Float(50), Import: true})
	ack, _ := recvAck(t, conn, 3)
	assert.Equal(t, protocol.AckClamped, ack.Code)
	assert.NoError(t, ack.Err())
	roll, _ := reg.Float(catalog.RollP)
	assert.Equal(t, float32(12), roll)

	send(t, conn, 4, &protocol.SetMessage{Name: "MC_GHOST", Value: param.Float(1), Import: true})
	ack, _ = recvAck(t, conn, 4)
	assert.Equal(t, protocol.AckUnknownParameter, ack.Code)
	w, ok := ack.Warning()
	require.True(t, ok)
	assert.Equal(t, param.WarnUnknown, w.Kind)
}

func TestResetAndDescribe(t *testing.T) {
	srv, reg, ts := newTestServer(t)
	conn := dial(t, srv, ts)
	require.NoError(t, reg.Set(catalog.YawP, param.Float(4)))
	_, _ = recv(t, conn) // broadcast of the local set

	send(t, conn, 5, protocol.NewReset(catalog.YawP))
	ack, _ := recvAck(t, conn, 5)
	assert.Equal(t, protocol.AckOK, ack.Code)
	state, _ := reg.State(catalog.YawP)
	assert.Equal(t, param.StateDefault, state)

	send(t, conn, 6, protocol.NewDescribe(catalog.AttMode))
	f, msg := recv(t, conn)
	assert.Equal(t, uint32(6), f.MessageID)
	meta := msg.(*protocol.MetaMessage)
	assert.Equal(t, "int32", meta.Descriptor.Type)
	assert.Len(t, meta.Descriptor.Options, 7)

	send(t, conn, 7, protocol.NewDescribe("MC_GHOST"))
	ack, _ = recvAck(t, conn, 7)
	assert.Equal(t, protocol.AckUnknownParameter, ack.Code)
}

func TestMalformedFrame(t *testing.T) {
	srv, _, ts := newTestServer(t)
	conn := dial(t, srv, ts)

	frame, err := protocol.BuildFrame(9, protocol.MsgTypeSet, []byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame))

	ack, _ := recvAck(t, conn, 9)
	assert.Equal(t, protocol.AckBadRequest, ack.Code)
	assert.Contains(t, ack.Detail, "Set")

	// A response type sent as a request is refused.
	send(t, conn, 10, &protocol.AckMessage{Code: protocol.AckOK})
	ack, _ = recvAck(t, conn, 10)
	assert.Equal(t, protocol.AckBadRequest, ack.Code)
}

func TestAPIParams(t *testing.T) {
	_, reg, ts := newTestServer(t)
	require.NoError(t, catalog.SetMode(reg, catalog.ModeEstimateTilt))

	resp, err := http.Get(ts.URL + "/api/params")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body ParamsJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Params, 15)
	assert.Equal(t, uint64(1), body.Generation)
	assert.Equal(t, catalog.RollP, body.Params[0].Name)
	assert.Equal(t, 6.5, body.Params[0].Value)

	var mode ParamJSON
	for _, p := range body.Params {
		if p.Name == catalog.AttMode {
			mode = p
		}
	}
	assert.Equal(t, "modified", mode.State)
	assert.Equal(t, "estimate tilt", mode.Option)
}

func TestAPIParam(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/params/" + catalog.DFCMaxThrust)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p ParamJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.Equal(t, "float", p.Type)
	assert.Equal(t, "default", p.State)

	resp, err = http.Get(ts.URL + "/api/params/MC_GHOST")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var e ErrorJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Equal(t, "unknown_parameter", e.Error.Code)
}

func TestRunLifecycle(t *testing.T) {
	reg := param.NewRegistry()
	require.NoError(t, catalog.Register(reg))
	path := filepath.Join(t.TempDir(), "params.yaml")
	st := store.NewYAMLFile(path)

	srv, err := New(Config{Host: "127.0.0.1"}, reg,
		WithAutosaver(store.NewAutosaver(st, reg, time.Hour)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	addr := srv.Addr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, reg.Set(catalog.RollP, param.Float(8)))
	cancel()
	require.NoError(t, <-done)

	// The pending change was flushed on shutdown.
	records, err := st.Load(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.True(t, records[0].Value.Equal(param.Float(8)))
}

func TestRunListenError(t *testing.T) {
	srv, err := New(Config{Host: "256.0.0.1", Port: 1}, param.NewRegistry())
	require.NoError(t, err)
	assert.Error(t, srv.Run(context.Background()))
	assert.Empty(t, srv.Addr())
}

func TestRunSelfSignedTLS(t *testing.T) {
	tlsConfig, err := SelfSignedTLSConfig("127.0.0.1", "bench-quad.local")
	require.NoError(t, err)
	info := tlsInfo(tlsConfig)
	assert.Equal(t, true, info["enabled"])
	assert.Equal(t, "mcparam-server", info["subject"])

	reg := param.NewRegistry()
	require.NoError(t, catalog.Register(reg))
	srv, err := New(Config{Host: "127.0.0.1"}, reg, WithTLSConfig(tlsConfig))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	addr := srv.Addr()
	require.NotEmpty(t, addr)

	dialer := websocket.Dialer{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	conn, _, err := dialer.Dial("wss://"+addr+"/ws", nil)
	require.NoError(t, err)
	send(t, conn, 3, protocol.NewRequestRead(catalog.RollP))
	_, msg := recv(t, conn)
	v, ok := msg.(*protocol.ValueMessage)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, catalog.RollP, v.Name)
	conn.Close()

	// Plain HTTP is refused on a TLS listener
	client := &http.Client{Timeout: time.Second}
	if resp, err := client.Get("http://" + addr + "/api/health"); err == nil {
		assert.NotEqual(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	cancel()
	require.NoError(t, <-done)
}

func TestTLSInfoDisabled(t *testing.T) {
	assert.Equal(t, map[string]any{"enabled": false}, tlsInfo(nil))
}
