// Package netstack provides a per-radio-interface userspace TCP/IP
// stack, built on gvisor's network stack, plus the AP-side DHCP server
// and an optional pcap trace dumper. It is the network-stack-runner of
// the network orchestrator: the AP and STA radio interfaces each get
// their own Stack, fed raw frames by a RadioLink.
package netstack

import "time"

// Frame carries a raw IPv4/IPv6 packet exchanged with a radio interface.
type Frame struct {
	Deadline time.Time
	Payload  []byte
}

// RadioLink is the external hardware collaborator: the raw send/receive
// side of a Wi-Fi radio interface, below the IP layer.
type RadioLink interface {
	// FrameAvailable reports when ReadFrameNonblocking has a frame to
	// return.
	FrameAvailable() <-chan struct{}

	// ReadFrameNonblocking reads one inbound frame. Returns ErrNoFrame
	// if none is available; callers should wait on FrameAvailable.
	ReadFrameNonblocking() (*Frame, error)

	// WriteFrame sends an outbound frame.
	WriteFrame(frame *Frame) error

	// Closed reports when the radio link has shut down.
	Closed() <-chan struct{}
}

// Logger is the structured logging sink threaded through the network
// stack; concrete implementations wrap apex/log.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
}
