// Package client wraps the TCP connection to one player.
package client

import (
	"fmt"
	"net"
	"time"

	"github.com/openquiz/triviad/internal/protocol"
)

// Client represents a player connected to the game server. Its address is
// the identity under which the connection is tracked in the live-client set,
// the session table, and the outbound queue.
type Client struct {
	connection net.Conn
	addr       string

	reader *protocol.MessageReader
}

func NewClient(connection net.Conn) *Client {
	return &Client{
		connection: connection,
		addr:       connection.RemoteAddr().String(),
		reader:     protocol.NewMessageReader(connection),
	}
}

// Addr returns the remote address (ip:port) identifying this connection.
func (c *Client) Addr() string { return c.addr }

// ReadMessage blocks until the client has sent one complete protocol message.
func (c *Client) ReadMessage() (protocol.Message, error) {
	return c.reader.ReadMessage()
}

// Send writes the already-encoded message to the client, looping until every
// byte has been accepted. deadline bounds the whole write so that one stalled
// client cannot wedge the event loop; zero means no deadline.
func (c *Client) Send(data []byte, deadline time.Duration) error {
	if deadline > 0 {
		if err := c.connection.SetWriteDeadline(time.Now().Add(deadline)); err != nil {
			return fmt.Errorf("setting write deadline for %s: %w", c.addr, err)
		}
	}

	sent := 0
	for sent < len(data) {
		n, err := c.connection.Write(data[sent:])
		if err != nil {
			return fmt.Errorf("failed to send to client %s: %w", c.addr, err)
		}
		sent += n
	}

	return nil
}

// Close the TCP connection.
func (c *Client) Close() error {
	return c.connection.Close()
}
