package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/mcparam/internal/logging"
	"github.com/muurk/mcparam/internal/param"
	"github.com/muurk/mcparam/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = protocol.HeaderSize + protocol.MaxPayloadSize

	// Broadcast frames queued per session before it is dropped as too slow
	sendBuffer = 256

	// Reply frames queued per session; the read goroutine waits beyond this
	replyBuffer = 16
)

// session is one tuning-link connection. readPump is the only reader and
// writePump the only writer of conn.
type session struct {
	id         string
	remoteAddr string
	conn       *websocket.Conn
	srv        *Server

	send      chan []byte // broadcasts
	replies   chan []byte // answers to this session's requests
	done      chan struct{}
	closeOnce sync.Once
}

// handleWebSocket upgrades /ws and starts the session's pumps
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	sess := &session{
		id:         uuid.NewString(),
		remoteAddr: r.RemoteAddr,
		conn:       conn,
		srv:        s,
		send:       make(chan []byte, sendBuffer),
		replies:    make(chan []byte, replyBuffer),
		done:       make(chan struct{}),
	}
	s.addSession(sess)
	logging.LogConnection(sess.remoteAddr, sess.id, "websocket_upgraded")

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		sess.writePump()
	}()
	go func() {
		defer s.wg.Done()
		sess.readPump()
	}()
}

// close ends the session. Safe to call from any goroutine, more than once.
func (sess *session) close() {
	sess.closeOnce.Do(func() {
		close(sess.done)
		sess.srv.removeSession(sess)
	})
}

// enqueue queues a reply for writePump, waiting for room in the queue.
// Replies are produced on the read goroutine, so a client that stops
// reading also stops being served.
func (sess *session) enqueue(data []byte) bool {
	select {
	case <-sess.done:
		return false
	default:
	}

	select {
	case sess.replies <- data:
		return true
	case <-sess.done:
		return false
	}
}

// offer queues a broadcast without waiting. A session whose queue is full
// is too slow to keep up with broadcasts and is disconnected.
func (sess *session) offer(data []byte) bool {
	select {
	case <-sess.done:
		return false
	default:
	}

	select {
	case sess.send <- data:
		return true
	case <-sess.done:
		return false
	default:
		logging.Warn("Session send queue full, disconnecting",
			zap.String("session", sess.id),
			zap.String("remote_addr", sess.remoteAddr),
		)
		sess.close()
		return false
	}
}

// reply encodes and queues msg under id. It reports false once the session
// has ended.
func (sess *session) reply(id uint32, msg protocol.Message) bool {
	data, err := protocol.Encode(id, msg)
	if err != nil {
		logging.Error("Failed to encode tuning message",
			zap.String("session", sess.id),
			zap.String("message", msg.String()),
			zap.Error(err),
		)
		return true
	}
	logging.LogTuningMessage(sess.id, "sent", protocol.GetMessageTypeName(msg.Type()), id, "", data)
	return sess.enqueue(data)
}

func (sess *session) readPump() {
	defer func() {
		sess.close()
		logging.LogConnection(sess.remoteAddr, sess.id, "websocket_closed")
	}()

	sess.conn.SetReadLimit(maxMessageSize)
	_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info("Connection closed or error reading frame",
					zap.String("session", sess.id),
					zap.Error(err),
				)
			}
			return
		}

		if msgType != websocket.BinaryMessage {
			logging.Warn("Ignoring non-binary WebSocket message",
				zap.String("session", sess.id),
				zap.Int("type", msgType),
			)
			continue
		}
		sess.handleFrame(data)
	}
}

// writePump drains broadcasts ahead of replies, so a broadcast queued by a
// Set goes out before that Set's Ack.
func (sess *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = sess.conn.Close()
	}()

	for {
		var data []byte
		select {
		case data = <-sess.send:
		default:
			select {
			case data = <-sess.send:
			case data = <-sess.replies:
			case <-ticker.C:
				if err := sess.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					sess.close()
					return
				}
				continue
			case <-sess.done:
				_ = sess.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			}
		}

		_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sess.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			logging.Info("Failed to write frame",
				zap.String("session", sess.id),
				zap.Error(err),
			)
			sess.close()
			return
		}
	}
}

// handleFrame answers one request frame
func (sess *session) handleFrame(data []byte) {
	frame, msg, err := protocol.Decode(data)
	if err != nil {
		var id uint32
		if frame != nil {
			id = frame.MessageID
		}
		logging.Warn("Malformed tuning frame",
			zap.String("session", sess.id),
			zap.Uint32("id", id),
			zap.Error(err),
		)
		sess.reply(id, &protocol.AckMessage{Code: protocol.AckBadRequest, Detail: err.Error()})
		return
	}
	logging.LogTuningMessage(sess.id, "received", protocol.GetMessageTypeName(frame.Type), frame.MessageID, "", data)

	reg := sess.srv.reg
	id := frame.MessageID

	switch m := msg.(type) {
	case *protocol.RequestListMessage:
		values := listValues(reg)
		for _, vm := range values {
			if !sess.reply(id, vm) {
				return
			}
		}
		if len(values) == 0 {
			// Nothing to count down; tell the client the list is complete
			sess.reply(id, protocol.AckForError("", nil))
		}

	case *protocol.RequestReadMessage:
		vm, err := readValue(reg, m.Name)
		if err != nil {
			sess.reply(id, protocol.AckForError(m.Name, err))
			return
		}
		sess.reply(id, vm)

	case *protocol.SetMessage:
		if m.Import {
			applied, warn := reg.Import(param.Record{Name: m.Name, Value: m.Value})
			switch {
			case warn != nil:
				sess.reply(id, protocol.AckForWarning(*warn))
			case applied:
				sess.reply(id, protocol.AckForError(m.Name, nil))
			}
			return
		}
		sess.reply(id, protocol.AckForError(m.Name, reg.Set(m.Name, m.Value)))

	case *protocol.ResetMessage:
		sess.reply(id, protocol.AckForError(m.Name, reg.ResetToDefault(m.Name)))

	case *protocol.DescribeMessage:
		def, err := reg.Lookup(m.Name)
		if err != nil {
			sess.reply(id, protocol.AckForError(m.Name, err))
			return
		}
		sess.reply(id, &protocol.MetaMessage{Descriptor: protocol.DescribeDefinition(def)})

	default:
		sess.reply(id, &protocol.AckMessage{
			Code:   protocol.AckBadRequest,
			Detail: protocol.GetMessageTypeName(frame.Type) + " is not a request",
		})
	}
}

// broadcastChange sends every published value to every session with the
// broadcast id. It runs on the writer's goroutine and never blocks.
func (s *Server) broadcastChange(c param.Change) {
	logging.LogParamChange(c, "registry")

	state, err := s.reg.State(c.Name)
	if err != nil {
		return
	}
	vm := &protocol.ValueMessage{
		Name:    c.Name,
		Value:   c.New,
		State:   state,
		Index:   uint16(c.Index),
		Count:   uint16(s.reg.Len()),
		Changes: uint32(c.Changes),
	}
	data, err := protocol.Encode(protocol.MsgIDBroadcast, vm)
	if err != nil {
		logging.Error("Failed to encode broadcast", zap.String("param", c.Name), zap.Error(err))
		return
	}
	for _, sess := range s.snapshotSessions() {
		sess.offer(data)
	}
}

// readValue builds the Value message for one parameter
func readValue(reg *param.Registry, name string) (*protocol.ValueMessage, error) {
	v, err := reg.Get(name)
	if err != nil {
		return nil, err
	}
	idx, err := reg.IndexOf(name)
	if err != nil {
		return nil, err
	}
	state, _ := reg.State(name)
	changes, _ := reg.ChangeCount(name)
	return &protocol.ValueMessage{
		Name:    name,
		Value:   v,
		State:   state,
		Index:   uint16(idx),
		Count:   uint16(reg.Len()),
		Changes: uint32(changes),
	}, nil
}

// listValues builds Value messages for every parameter in registration order
func listValues(reg *param.Registry) []*protocol.ValueMessage {
	records := reg.ExportAll()
	out := make([]*protocol.ValueMessage, 0, len(records))
	for i, rec := range records {
		state, _ := reg.State(rec.Name)
		changes, _ := reg.ChangeCount(rec.Name)
		out = append(out, &protocol.ValueMessage{
			Name:    rec.Name,
			Value:   rec.Value,
			State:   state,
			Index:   uint16(i),
			Count:   uint16(len(records)),
			Changes: uint32(changes),
		})
	}
	return out
}
