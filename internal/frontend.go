package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openquiz/triviad/internal/core"
	"github.com/openquiz/triviad/internal/core/client"
	"github.com/openquiz/triviad/internal/protocol"
)

// How long one outbound write may take before the client is considered dead.
const writeTimeout = 10 * time.Second

type eventKind int

const (
	eventConnect eventKind = iota
	eventMessage
	eventDisconnect
)

// event is the unit of work processed by the frontend's event loop. Accept
// and reader goroutines produce them; only the loop consumes them.
type event struct {
	kind    eventKind
	client  *client.Client
	message protocol.Message
}

// outboundEntry pairs a client with one already-encoded message awaiting
// delivery. Entries are delivered in pure arrival order across all clients.
type outboundEntry struct {
	client *client.Client
	data   []byte
}

// frontend implements the connection engine.
//
// All shared state (the live-client set, the outbound queue, and everything
// owned by the Backend) is touched exclusively by the event loop goroutine,
// so none of it needs locking. The accept goroutine and the per-connection
// reader goroutines do nothing but blocking socket reads and post the result
// to the loop.
type frontend struct {
	Address string
	Backend Backend
	Config  *core.Config
	Logger  *logrus.Logger

	events     chan event
	clients    map[string]*client.Client
	outbound   []outboundEntry
	listenAddr net.Addr
}

// Start initializes the server backend and opens a TCP socket on the
// frontend's Address. The event loop is spun off in its own goroutine and
// added to the WaitGroup; context cancellation stops the server.
func (f *frontend) Start(ctx context.Context, wg *sync.WaitGroup) error {
	if err := f.Backend.Init(ctx); err != nil {
		return fmt.Errorf("error initializing %s server: %w", f.Backend.Identifier(), err)
	}

	socket, err := f.createSocket()
	if err != nil {
		return fmt.Errorf("error creating socket on %s: %w", f.Address, err)
	}

	f.events = make(chan event)
	f.clients = make(map[string]*client.Client)
	f.listenAddr = socket.Addr()

	wg.Add(1)
	go f.run(ctx, socket, wg)

	return nil
}

// createSocket opens a TCP socket to listen for client connections on the
// Address provided to the frontend.
func (f *frontend) createSocket() (*net.TCPListener, error) {
	hostAddr, err := net.ResolveTCPAddr("tcp", f.Address)
	if err != nil {
		return nil, fmt.Errorf("error resolving address %s: %w", f.Address, err)
	}

	socket, err := net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return nil, fmt.Errorf("error listening on socket: %w", err)
	}

	return socket, nil
}

// ListenAddr returns the address the frontend is bound to, which differs from
// f.Address when the configured port is 0.
func (f *frontend) ListenAddr() net.Addr {
	return f.listenAddr
}

// run is the event loop. Each iteration blocks until one event is ready,
// applies it, and then flushes whatever the dispatcher enqueued. This is the
// only goroutine that mutates the live-client set, the outbound queue, or
// the Backend's state.
func (f *frontend) run(ctx context.Context, socket *net.TCPListener, wg *sync.WaitGroup) {
	defer wg.Done()

	f.Logger.Infof("[%s] waiting for connections on %v", f.Backend.Identifier(), socket.Addr())

	go f.acceptLoop(ctx, socket)

	for {
		select {
		case <-ctx.Done():
			f.shutdown(socket)
			return
		case ev := <-f.events:
			f.handleEvent(ctx, ev)
			f.flushOutbound()
		}
	}
}

// acceptLoop blocks on the listening socket and posts one connect event per
// accepted connection. Capacity enforcement happens in the event loop, which
// owns the live-client set.
func (f *frontend) acceptLoop(ctx context.Context, socket *net.TCPListener) {
	for {
		connection, err := socket.AcceptTCP()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			f.Logger.Warnf("failed to accept connection: %s", err.Error())
			continue
		}

		f.post(ctx, event{kind: eventConnect, client: client.NewClient(connection)})
	}
}

// readLoop reads complete messages from one client until the connection
// fails, posting each to the event loop. Any read failure, including a
// framing violation, ends in a single disconnect event: a stream we can no
// longer frame is indistinguishable from a dead connection.
func (f *frontend) readLoop(ctx context.Context, c *client.Client) {
	for {
		message, err := c.ReadMessage()
		if err != nil {
			if err != io.EOF && !errors.Is(err, net.ErrClosed) {
				f.Logger.Warnf("[%s] read error from %s: %v", f.Backend.Identifier(), c.Addr(), err)
			}
			f.post(ctx, event{kind: eventDisconnect, client: c})
			return
		}

		f.post(ctx, event{kind: eventMessage, client: c, message: message})
	}
}

// post delivers an event to the loop, giving up if the server is stopping.
func (f *frontend) post(ctx context.Context, ev event) {
	select {
	case f.events <- ev:
	case <-ctx.Done():
	}
}

func (f *frontend) handleEvent(ctx context.Context, ev event) {
	switch ev.kind {
	case eventConnect:
		f.acceptClient(ctx, ev.client)

	case eventMessage:
		// Messages from a client that was torn down earlier in the event
		// stream are dropped.
		if _, ok := f.clients[ev.client.Addr()]; !ok {
			return
		}

		reply, closeConn := f.Backend.Handle(ctx, ev.client, ev.message)
		if reply != nil {
			f.enqueue(ev.client, reply)
		}
		if closeConn {
			f.flushOutbound()
			f.teardown(ev.client)
		}

	case eventDisconnect:
		// Teardown may already have happened (say, after a write failure);
		// the reader's disconnect event is then a no-op.
		f.teardown(ev.client)
	}
}

// acceptClient registers the connection in the live-client set and starts
// its reader goroutine, or turns it away if the server is full.
func (f *frontend) acceptClient(ctx context.Context, c *client.Client) {
	if f.Config.MaxConnections > 0 && len(f.clients) >= f.Config.MaxConnections {
		f.Logger.Warnf("[%s] rejecting connection from %s: server is full",
			f.Backend.Identifier(), c.Addr())
		_ = c.Close()
		return
	}

	f.clients[c.Addr()] = c
	f.Logger.Infof("[%s] accepted connection from %s", f.Backend.Identifier(), c.Addr())

	go f.readLoop(ctx, c)
}

// enqueue encodes the reply and appends it to the outbound queue. A reply
// that cannot be encoded (an over-long payload) leaves nothing sensible to
// say to the client, so the connection is torn down instead.
func (f *frontend) enqueue(c *client.Client, reply *protocol.Reply) {
	data, ok := protocol.BuildMessage(reply.Command, reply.Payload)
	if !ok {
		f.Logger.Errorf("[%s] reply %s to %s does not fit the protocol (payload %d bytes)",
			f.Backend.Identifier(), reply.Command, c.Addr(), len(reply.Payload))
		f.teardown(c)
		return
	}

	f.outbound = append(f.outbound, outboundEntry{client: c, data: []byte(data)})
}

// flushOutbound delivers every queued entry in arrival order. Each entry is
// removed from the queue exactly once: on successful delivery or on the
// write failure that also tears its connection down.
func (f *frontend) flushOutbound() {
	for len(f.outbound) > 0 {
		entry := f.outbound[0]
		f.outbound = f.outbound[1:]

		if err := entry.client.Send(entry.data, writeTimeout); err != nil {
			f.Logger.Warnf("[%s] write to %s failed: %v", f.Backend.Identifier(), entry.client.Addr(), err)
			f.teardown(entry.client)
		}
	}
}

// teardown removes every trace of the connection: the live-client set, the
// Backend's session state, and any queued outbound entries are all purged
// before the socket closes. Safe to call more than once per client.
func (f *frontend) teardown(c *client.Client) {
	if _, ok := f.clients[c.Addr()]; !ok {
		return
	}
	delete(f.clients, c.Addr())

	f.Backend.DropClient(c)

	remaining := f.outbound[:0]
	for _, entry := range f.outbound {
		if entry.client != c {
			remaining = append(remaining, entry)
		}
	}
	f.outbound = remaining

	if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		f.Logger.Warnf("failed to close client connection: %s", err)
	}

	f.Logger.Infof("[%s] disconnected client %s", f.Backend.Identifier(), c.Addr())
}

// shutdown closes the listener and tears down every live connection.
func (f *frontend) shutdown(socket *net.TCPListener) {
	if err := socket.Close(); err != nil {
		f.Logger.Warnf("error closing listener on %s: %s", f.Address, err)
	}

	for _, c := range f.clients {
		f.teardown(c)
	}

	f.Logger.Infof("[%s] exited", f.Backend.Identifier())
}
