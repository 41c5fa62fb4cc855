package wsutil

import "log/slog"

// SafeSend sends data to a client send channel without panicking if the
// channel has been closed by the hub. If the channel is full or closed the
// frame is dropped; a slow or dead reader must never block a room.
func SafeSend(ch chan []byte, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("send to closed channel", "tag", "wsutil", "recovered", r)
		}
	}()
	select {
	case ch <- data:
	default:
	}
}
