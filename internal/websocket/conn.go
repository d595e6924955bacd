package websocket

import (
	"net"
	"time"
)

// Conn is the slice of a gorilla connection the client pumps drive.
// *websocket.Conn satisfies it directly; tests swap in an in-memory
// fake.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	RemoteAddr() net.Addr
}
