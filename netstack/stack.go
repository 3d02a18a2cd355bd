package netstack

import (
	"errors"
	"io"
	"net/netip"
	"sync"
	"syscall"

	"gvisor.dev/gvisor/pkg/bufferv2"
	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/adapters/gonet"
	"gvisor.dev/gvisor/pkg/tcpip/header"
	"gvisor.dev/gvisor/pkg/tcpip/link/channel"
	"gvisor.dev/gvisor/pkg/tcpip/network/ipv4"
	"gvisor.dev/gvisor/pkg/tcpip/network/ipv6"
	"gvisor.dev/gvisor/pkg/tcpip/stack"
	"gvisor.dev/gvisor/pkg/tcpip/transport/tcp"
	"gvisor.dev/gvisor/pkg/tcpip/transport/udp"
)

// ErrNoFrame is returned by RadioLink.ReadFrameNonblocking when no frame
// is currently queued.
var ErrNoFrame = syscall.EAGAIN

// ErrStackClosed is returned by Stack operations attempted after Close.
var ErrStackClosed = errors.New("netstack: stack closed")

// Stack is a userspace TCP/IP stack bound to one radio interface. It
// pumps raw IP frames to and from a RadioLink while exposing
// ListenTCP/ListenUDP to the transport and DHCP layers above it.
type Stack struct {
	closeOnce sync.Once
	closed    chan struct{}

	endpoint       *channel.Endpoint
	outboundNotify chan struct{}
	link           RadioLink
	ipAddr         netip.Addr
	name           string
	logger         Logger
	stack          *stack.Stack

	wg sync.WaitGroup
}

// WriteNotify implements channel.Notification: gvisor calls this every
// time a new outbound packet is readable from the endpoint.
func (s *Stack) WriteNotify() {
	select {
	case s.outboundNotify <- struct{}{}:
	default:
	}
}

// New creates a Stack for the named interface (e.g. "ap0", "sta0")
// bound to addr, and starts the background pump goroutines that move
// frames between link and the userspace stack. Callers must call Close
// to release resources.
func New(logger Logger, name string, addr netip.Addr, mtu uint32, link RadioLink) (*Stack, error) {
	opts := stack.Options{
		NetworkProtocols: []stack.NetworkProtocolFactory{
			ipv4.NewProtocol,
			ipv6.NewProtocol,
		},
		TransportProtocols: []stack.TransportProtocolFactory{
			tcp.NewProtocol,
			udp.NewProtocol,
		},
		HandleLocal: true,
	}

	s := &Stack{
		closed:         make(chan struct{}),
		endpoint:       channel.New(1024, mtu, ""),
		outboundNotify: make(chan struct{}, 1),
		link:           link,
		ipAddr:         addr,
		name:           name,
		logger:         logger,
		stack:          stack.New(opts),
	}
	s.endpoint.AddNotify(s)

	if err := s.stack.CreateNIC(1, s.endpoint); err != nil {
		return nil, errors.New(err.String())
	}
	protoAddr := tcpip.ProtocolAddress{
		Protocol:          ipv4.ProtocolNumber,
		AddressWithPrefix: tcpip.Address(addr.AsSlice()).WithPrefix(),
	}
	if err := s.stack.AddProtocolAddress(1, protoAddr, stack.AddressProperties{}); err != nil {
		return nil, errors.New(err.String())
	}
	s.stack.AddRoute(tcpip.Route{Destination: header.IPv4EmptySubnet, NIC: 1})

	logger.Infof("netstack: ifconfig %s %s up mtu %d", name, addr, mtu)

	s.wg.Add(2)
	go s.pumpOutbound()
	go s.pumpInbound()
	return s, nil
}

// IPAddress returns the interface's configured IPv4 address.
func (s *Stack) IPAddress() netip.Addr { return s.ipAddr }

// pumpOutbound reads packets gvisor wants to send and hands them to the
// radio link.
func (s *Stack) pumpOutbound() {
	defer s.wg.Done()
	for {
		select {
		case <-s.closed:
			return
		case <-s.outboundNotify:
		}

		for {
			pkt := s.endpoint.Read()
			if pkt.IsNil() {
				break
			}
			view := pkt.ToView()
			pkt.DecRef()
			buf := make([]byte, s.endpoint.MTU())
			n, err := view.Read(buf)
			if err != nil && err != io.EOF {
				s.logger.Warnf("netstack: %s: read outbound packet: %v", s.name, err)
				continue
			}
			if werr := s.link.WriteFrame(&Frame{Payload: buf[:n]}); werr != nil {
				select {
				case <-s.closed:
					return
				default:
				}
				s.logger.Warnf("netstack: %s: write frame: %v", s.name, werr)
			}
		}
	}
}

// pumpInbound reads frames from the radio link and injects them into
// gvisor.
func (s *Stack) pumpInbound() {
	defer s.wg.Done()
	for {
		select {
		case <-s.closed:
			return
		case <-s.link.Closed():
			return
		case <-s.link.FrameAvailable():
		}

		for {
			frame, err := s.link.ReadFrameNonblocking()
			if errors.Is(err, ErrNoFrame) {
				break
			}
			if err != nil {
				s.logger.Warnf("netstack: %s: read frame: %v", s.name, err)
				break
			}
			s.inject(frame.Payload)
		}
	}
}

func (s *Stack) inject(packet []byte) {
	if len(packet) == 0 {
		return
	}
	pkb := stack.NewPacketBuffer(stack.PacketBufferOptions{Payload: bufferv2.MakeWithData(packet)})
	switch packet[0] >> 4 {
	case 4:
		s.endpoint.InjectInbound(header.IPv4ProtocolNumber, pkb)
	case 6:
		s.endpoint.InjectInbound(header.IPv6ProtocolNumber, pkb)
	}
}

// ListenTCP opens a TCP listener bound to port on this interface.
func (s *Stack) ListenTCP(port uint16) (*gonet.TCPListener, error) {
	fa := tcpip.FullAddress{NIC: 1, Addr: tcpip.Address(s.ipAddr.AsSlice()), Port: port}
	return gonet.ListenTCP(s.stack, fa, ipv4.ProtocolNumber)
}

// ListenUDP opens a UDP socket bound to port on this interface, used by
// the DHCP server.
func (s *Stack) ListenUDP(port uint16) (*gonet.UDPConn, error) {
	fa := tcpip.FullAddress{NIC: 1, Addr: tcpip.Address(s.ipAddr.AsSlice()), Port: port}
	return gonet.DialUDP(s.stack, &fa, nil, ipv4.ProtocolNumber)
}

// Close tears down the stack and stops its pump goroutines.
func (s *Stack) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.endpoint.Close()
		s.logger.Infof("netstack: ifconfig %s down", s.name)
	})
	s.wg.Wait()
	return nil
}
