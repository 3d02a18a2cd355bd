package netstack

import (
	"encoding/binary"
	"net"
	"sync"

	"gvisor.dev/gvisor/pkg/tcpip/adapters/gonet"
)

// DHCPServer is a minimal RFC 2131 DISCOVER/OFFER/REQUEST/ACK server
// serving a fixed address pool on the access-point interface. It exists
// because §4.4 of the network orchestrator assigns the transport layer
// the job of running a DHCP server for STA clients joining the AP, and
// no third-party DHCP server implementation appears anywhere in the
// retrieval pack.
type DHCPServer struct {
	once sync.Once
	conn *gonet.UDPConn
	wg   sync.WaitGroup

	mu      sync.Mutex
	leases  map[string]net.IP // client MAC (string) -> leased IP
	nextIdx int
}

const (
	dhcpServerPort = 67
	dhcpClientPort = 68
)

// Pool describes the fixed address range a DHCPServer leases from.
type Pool struct {
	ServerIP   net.IP
	RangeStart net.IP // inclusive
	RangeEnd   net.IP // inclusive; nil leaves the range unbounded
	SubnetMask net.IP
	DNS        net.IP // omitted from offers/acks if nil
	LeaseSecs  uint32
}

// NewDHCPServer binds a UDP listener for port 67 on stack and starts
// serving leases from pool. Callers must call Close to release it.
func NewDHCPServer(logger Logger, stack *Stack, pool Pool) (*DHCPServer, error) {
	conn, err := stack.ListenUDP(dhcpServerPort)
	if err != nil {
		return nil, err
	}
	s := &DHCPServer{
		conn:   conn,
		leases: make(map[string]net.IP),
	}
	s.wg.Add(1)
	go s.worker(logger, pool)
	return s, nil
}

// Close shuts down the DHCP server.
func (s *DHCPServer) Close() error {
	s.once.Do(func() {
		s.conn.Close()
	})
	s.wg.Wait()
	return nil
}

func (s *DHCPServer) worker(logger Logger, pool Pool) {
	defer s.wg.Done()
	buf := make([]byte, 576)
	for {
		n, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			return // listener closed
		}
		pkt, err := parseDHCPPacket(buf[:n])
		if err != nil {
			logger.Warnf("netstack: dhcp: malformed packet: %v", err)
			continue
		}
		resp, ok := s.handle(pkt, pool)
		if !ok {
			continue
		}
		if _, err := s.conn.WriteTo(resp, addr); err != nil {
			logger.Warnf("netstack: dhcp: write response: %v", err)
		}
	}
}

func (s *DHCPServer) handle(pkt *dhcpPacket, pool Pool) ([]byte, bool) {
	msgType, ok := pkt.options[dhcpOptMessageType]
	if !ok || len(msgType) != 1 {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch msgType[0] {
	case dhcpDiscover:
		ip := s.leaseFor(pkt.chaddr, pool)
		if ip == nil {
			return nil, false
		}
		return buildDHCPReply(pkt, dhcpOffer, ip, pool), true
	case dhcpRequest:
		ip := s.leaseFor(pkt.chaddr, pool)
		if ip == nil {
			return nil, false
		}
		return buildDHCPReply(pkt, dhcpAck, ip, pool), true
	default:
		return nil, false
	}
}

// leaseFor returns the existing lease for mac, or assigns the next free
// address from pool's range, or nil once the range is used up.
func (s *DHCPServer) leaseFor(mac []byte, pool Pool) net.IP {
	key := string(mac)
	if ip, ok := s.leases[key]; ok {
		return ip
	}
	start := binary.BigEndian.Uint32(pool.RangeStart.To4())
	candidate := start + uint32(s.nextIdx)
	if end := pool.RangeEnd.To4(); end != nil && candidate > binary.BigEndian.Uint32(end) {
		return nil
	}
	ip := make(net.IP, 4)
	binary.BigEndian.PutUint32(ip, candidate)
	s.nextIdx++
	s.leases[key] = ip
	return ip
}
