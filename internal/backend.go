package internal

import (
	"context"

	"github.com/openquiz/triviad/internal/core/client"
	"github.com/openquiz/triviad/internal/protocol"
)

// Backend is the interface between the connection engine and the game logic.
// The frontend guarantees that all Backend methods are invoked from its
// single event loop goroutine, so implementations may hold mutable state
// without locking.
type Backend interface {
	// Identifier returns a uniquely identifying string used in logs.
	Identifier() string

	// Init is called before the Backend is started as a hook for it to
	// perform any necessary initialization before it can accept clients.
	Init(ctx context.Context) error

	// Handle processes one decoded client message. It returns the reply to
	// enqueue for the client (nil for none) and whether the connection
	// should be torn down once any reply has been delivered.
	Handle(ctx context.Context, c *client.Client, msg protocol.Message) (reply *protocol.Reply, closeConn bool)

	// DropClient is invoked exactly once during connection teardown so the
	// Backend can release any state associated with the client, such as its
	// session.
	DropClient(c *client.Client)
}
