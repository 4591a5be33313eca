package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/mcparam/internal/logging"
	"github.com/muurk/mcparam/internal/param"
	"github.com/muurk/mcparam/internal/protocol"
)

// DefaultTimeout applies to a request when the caller's context has no deadline
const DefaultTimeout = 5 * time.Second

// updateBuffer is how many broadcasts are held for a slow Updates reader
const updateBuffer = 64

// ErrClosed is returned by requests on a closed client
var ErrClosed = errors.New("client: connection closed")

// Config holds optional dial settings
type Config struct {
	// TLSConfig is used for wss:// URLs. Nil uses the system roots.
	TLSConfig *tls.Config

	// Timeout applies to requests without a context deadline. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Client is a tuning-link client. Requests are serialized: one is in flight
// at a time and responses are matched by message id. All methods are safe
// for concurrent use.
type Client struct {
	conn    *websocket.Conn
	timeout time.Duration
	ids     protocol.IDSource

	reqMu   sync.Mutex // one outstanding request
	writeMu sync.Mutex // gorilla allows one concurrent writer

	mu      sync.Mutex
	pending uint32
	replies chan protocol.Message
	stop    chan struct{} // closed when the pending request returns

	updates   chan *protocol.ValueMessage
	done      chan struct{}
	err       error
	closeOnce sync.Once
}

// Dial connects to a tuning server, e.g. "ws://10.0.0.2:14560/ws"
func Dial(ctx context.Context, url string) (*Client, error) {
	return DialConfig(ctx, url, Config{})
}

// DialConfig connects with explicit settings
func DialConfig(ctx context.Context, url string, cfg Config) (*Client, error) {
	dialer := *websocket.DefaultDialer
	dialer.TLSClientConfig = cfg.TLSConfig

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		conn:    conn,
		timeout: timeout,
		updates: make(chan *protocol.ValueMessage, updateBuffer),
		done:    make(chan struct{}),
	}
	go c.readLoop()

	logging.Debug("Connected to tuning server", zap.String("url", url))
	return c, nil
}

// Updates delivers values broadcast by the server: changes made by any
// session or by the vehicle. The channel is closed when the connection ends.
// Broadcasts are dropped when the reader falls more than 64 behind, and when
// an earlier change to the same parameter arrives after a later one.
func (c *Client) Updates() <-chan *protocol.ValueMessage {
	return c.updates
}

// Done is closed when the connection ends
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns why the connection ended, nil while it is open
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close ends the connection
func (c *Client) Close() error {
	c.writeMu.Lock()
	err := c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	c.shutdown(ErrClosed)
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	if errors.Is(err, websocket.ErrCloseSent) {
		err = nil
	}
	return err
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
	})
}

// changeFilter drops broadcasts that arrive after a newer one for the same
// parameter. Concurrent writers on the server can publish in one order and
// broadcast in the other; the per-parameter change counter settles it.
type changeFilter map[string]uint32

// fresh reports whether vm is newer than every broadcast seen for its
// parameter, and records it if so. Counters compare modulo 2^32.
func (f changeFilter) fresh(vm *protocol.ValueMessage) bool {
	last, ok := f[vm.Name]
	if ok && int32(vm.Changes-last) <= 0 {
		return false
	}
	f[vm.Name] = vm.Changes
	return true
}

func (c *Client) readLoop() {
	defer close(c.updates)
	seen := changeFilter{}
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.shutdown(fmt.Errorf("%w: %v", ErrClosed, err))
			return
		}

		frame, msg, err := protocol.Decode(data)
		if err != nil {
			logging.Warn("Malformed frame from server", zap.Error(err))
			continue
		}
		logging.LogTuningMessage("", "received", protocol.GetMessageTypeName(frame.Type), frame.MessageID, "", data)

		if frame.MessageID == protocol.MsgIDBroadcast {
			if vm, ok := msg.(*protocol.ValueMessage); ok {
				if !seen.fresh(vm) {
					logging.Debug("Dropping stale broadcast",
						zap.String("param", vm.Name),
						zap.Uint32("changes", vm.Changes),
					)
					continue
				}
				select {
				case c.updates <- vm:
				default:
					logging.Debug("Dropping broadcast, Updates reader is behind", zap.String("param", vm.Name))
				}
				continue
			}
		}

		c.mu.Lock()
		replies, stop := c.replies, c.stop
		match := c.pending == frame.MessageID
		c.mu.Unlock()
		if !match || replies == nil {
			logging.Debug("Ignoring unmatched reply", zap.Stringer("frame", frame))
			continue
		}
		select {
		case replies <- msg:
		case <-stop:
		case <-c.done:
			return
		}
	}
}

// request sends msg and feeds replies to collect until it reports done
func (c *Client) request(ctx context.Context, msg protocol.Message, collect func(protocol.Message) (bool, error)) error {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	select {
	case <-c.done:
		return c.Err()
	default:
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	id := c.ids.Next()
	replies := make(chan protocol.Message)
	stop := make(chan struct{})
	c.mu.Lock()
	c.pending, c.replies, c.stop = id, replies, stop
	c.mu.Unlock()
	defer func() {
		close(stop)
		c.mu.Lock()
		c.pending, c.replies, c.stop = 0, nil, nil
		c.mu.Unlock()
	}()

	data, err := protocol.Encode(id, msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(dl)
	}
	err = c.conn.WriteMessage(websocket.BinaryMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", msg, err)
	}

	for {
		select {
		case reply := <-replies:
			done, err := collect(reply)
			if err != nil || done {
				return err
			}
		case <-c.done:
			return c.Err()
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", msg, ctx.Err())
		}
	}
}

// unexpected reports a reply of the wrong type
func unexpected(msg protocol.Message) error {
	if ack, ok := msg.(*protocol.AckMessage); ok {
		if err := ack.Err(); err != nil {
			return err
		}
	}
	return fmt.Errorf("unexpected reply %s", msg)
}

// List returns every parameter in registration order
func (c *Client) List(ctx context.Context) ([]*protocol.ValueMessage, error) {
	var values []*protocol.ValueMessage
	err := c.request(ctx, &protocol.RequestListMessage{}, func(msg protocol.Message) (bool, error) {
		switch m := msg.(type) {
		case *protocol.ValueMessage:
			values = append(values, m)
			return len(values) >= int(m.Count), nil
		case *protocol.AckMessage:
			// An empty registry answers with a bare ack
			if m.Code == protocol.AckOK {
				return true, nil
			}
		}
		return false, unexpected(msg)
	})
	return values, err
}

// Get reads one parameter
func (c *Client) Get(ctx context.Context, name string) (*protocol.ValueMessage, error) {
	var value *protocol.ValueMessage
	err := c.request(ctx, protocol.NewRequestRead(name), func(msg protocol.Message) (bool, error) {
		if m, ok := msg.(*protocol.ValueMessage); ok {
			value = m
			return true, nil
		}
		return false, unexpected(msg)
	})
	return value, err
}

// Set writes one parameter with set semantics. Validation failures come
// back as *param.Error.
func (c *Client) Set(ctx context.Context, name string, v param.Value) error {
	return c.ack(ctx, &protocol.SetMessage{Name: name, Value: v}, nil)
}

// Reset restores one parameter's default
func (c *Client) Reset(ctx context.Context, name string) error {
	return c.ack(ctx, protocol.NewReset(name), nil)
}

// Import writes one record with import semantics. applied is false when the
// server skipped the record; warn is set whenever the record was not applied
// verbatim.
func (c *Client) Import(ctx context.Context, rec param.Record) (applied bool, warn *param.Warning, err error) {
	var reply *protocol.AckMessage
	err = c.ack(ctx, &protocol.SetMessage{Name: rec.Name, Value: rec.Value, Import: true}, &reply)
	if err != nil {
		return false, nil, err
	}
	if w, ok := reply.Warning(); ok {
		warn = &w
	}
	return reply.Code.Success(), warn, nil
}

// ImportAll imports records one by one, building the same report the
// registry would
func (c *Client) ImportAll(ctx context.Context, records []param.Record) (param.ImportReport, error) {
	var rep param.ImportReport
	for _, rec := range records {
		applied, warn, err := c.Import(ctx, rec)
		if err != nil {
			return rep, err
		}
		if applied {
			rep.Applied = append(rep.Applied, rec.Name)
		}
		if warn != nil {
			rep.Warnings = append(rep.Warnings, *warn)
		}
	}
	return rep, nil
}

// ack sends msg and waits for its Ack. When out is nil a failed Ack is
// returned as an error; otherwise the Ack is stored in out.
func (c *Client) ack(ctx context.Context, msg protocol.Message, out **protocol.AckMessage) error {
	return c.request(ctx, msg, func(reply protocol.Message) (bool, error) {
		m, ok := reply.(*protocol.AckMessage)
		if !ok {
			return false, unexpected(reply)
		}
		if out != nil {
			*out = m
			return true, nil
		}
		return true, m.Err()
	})
}

// Describe fetches a parameter's definition
func (c *Client) Describe(ctx context.Context, name string) (param.Definition, error) {
	var def param.Definition
	err := c.request(ctx, protocol.NewDescribe(name), func(msg protocol.Message) (bool, error) {
		m, ok := msg.(*protocol.MetaMessage)
		if !ok {
			return false, unexpected(msg)
		}
		var err error
		def, err = m.Descriptor.Definition()
		return true, err
	})
	return def, err
}

// Export returns every parameter as a record, ready for a store
func (c *Client) Export(ctx context.Context) ([]param.Record, error) {
	values, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]param.Record, len(values))
	for i, v := range values {
		records[i] = param.Record{Name: v.Name, Value: v.Value}
	}
	return records, nil
}
