// Package ws carries message envelopes over WebSocket, one binary frame per
// envelope.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tonearm/pkg/messages"
)

const (
	// DefaultWriteTimeout bounds a single frame write.
	DefaultWriteTimeout = 10 * time.Second

	// maxFrameSize matches the envelope limit enforced by messages.Parse.
	maxFrameSize = 8 << 20
)

var (
	// ErrTextFrame is matched by *TextFrameError.
	ErrTextFrame = errors.New("text frame on binary protocol")

	// ErrClosed is returned by ReadFrame after the peer closed normally.
	ErrClosed = errors.New("connection closed")
)

// TextFrameError carries a text frame received from the peer.
type TextFrameError struct {
	Text string
}

func (e *TextFrameError) Error() string {
	return fmt.Sprintf("text frame on binary protocol (%d bytes)", len(e.Text))
}

func (e *TextFrameError) Is(target error) bool { return target == ErrTextFrame }

// Conn is a WebSocket connection that sends message envelopes. Send may be
// called from several goroutines; ReadFrame must only be called from one.
type Conn struct {
	ws           *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
}

// New wraps an established WebSocket connection.
func New(c *websocket.Conn) *Conn {
	c.SetReadLimit(maxFrameSize)
	return &Conn{ws: c, writeTimeout: DefaultWriteTimeout}
}

// Dial connects to a host's WebSocket endpoint.
func Dial(ctx context.Context, url string, header http.Header) (*Conn, error) {
	c, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connecting to %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	return New(c), nil
}

// Upgrader upgrades host HTTP requests. CheckOrigin nil accepts only
// same-origin browsers and all non-browser clients.
type Upgrader struct {
	CheckOrigin func(r *http.Request) bool
}

// Upgrade completes the WebSocket handshake. On failure the response has
// already been written.
func (u Upgrader) Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	up := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     u.CheckOrigin,
	}
	c, err := up.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return New(c), nil
}

// Send encodes msg and writes it as one binary frame.
func (c *Conn) Send(msg messages.Message) error {
	data, err := msg.Generate()
	if err != nil {
		return err
	}
	return c.writeFrame(websocket.BinaryMessage, data)
}

func (c *Conn) writeFrame(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.ws.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// ReadFrame returns the next binary frame. Text frames are returned as
// *TextFrameError and leave the connection usable.
func (c *Conn) ReadFrame() ([]byte, error) {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, ErrClosed
			}
			return nil, err
		}
		switch mt {
		case websocket.BinaryMessage:
			return data, nil
		case websocket.TextMessage:
			return nil, &TextFrameError{Text: string(data)}
		}
	}
}

// Close sends a normal close frame and closes the connection.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.ws.Close()
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}
