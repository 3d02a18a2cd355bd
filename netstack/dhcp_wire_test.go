package netstack

import (
	"net"
	"testing"
)

func TestDHCPDiscoverOfferRoundTrip(t *testing.T) {
	discover := make([]byte, dhcpFixedHeaderLen)
	discover[0] = dhcpOpBootRequest
	discover[1] = 1
	discover[2] = 6
	copy(discover[4:8], []byte{0xDE, 0xAD, 0xBE, 0xEF})
	copy(discover[28:34], []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01})
	discover[236] = 0x63
	discover[237] = 0x82
	discover[238] = 0x53
	discover[239] = 0x63
	discover = appendDHCPOption(discover, dhcpOptMessageType, []byte{dhcpDiscover})
	discover = append(discover, dhcpOptEnd)

	pkt, err := parseDHCPPacket(discover)
	if err != nil {
		t.Fatalf("parseDHCPPacket: %v", err)
	}
	if pkt.xid != 0xDEADBEEF {
		t.Fatalf("xid = %x, want deadbeef", pkt.xid)
	}
	if got, want := pkt.options[dhcpOptMessageType][0], byte(dhcpDiscover); got != want {
		t.Fatalf("message type = %d, want %d", got, want)
	}

	pool := Pool{
		ServerIP:   net.IPv4(192, 168, 4, 1),
		RangeStart: net.IPv4(192, 168, 4, 2),
		RangeEnd:   net.IPv4(192, 168, 4, 10),
		SubnetMask: net.IPv4(255, 255, 255, 0),
		DNS:        net.IPv4(8, 8, 8, 8),
		LeaseSecs:  3600,
	}
	offer := buildDHCPReply(pkt, dhcpOffer, net.IPv4(192, 168, 4, 2), pool)
	if offer[0] != dhcpOpBootReply {
		t.Fatalf("op = %d, want BOOTREPLY", offer[0])
	}
	if !net.IP(offer[16:20]).Equal(net.IPv4(192, 168, 4, 2).To4()) {
		t.Fatalf("yiaddr = %v, want 192.168.4.2", net.IP(offer[16:20]))
	}

	dns, ok := findDHCPOption(offer[dhcpFixedHeaderLen:], dhcpOptDNS)
	if !ok {
		t.Fatal("offer missing DNS option")
	}
	if !net.IP(dns).Equal(net.IPv4(8, 8, 8, 8).To4()) {
		t.Fatalf("DNS option = %v, want 8.8.8.8", net.IP(dns))
	}
}

// findDHCPOption scans a raw options area (as parseDHCPPacket does, but
// without the BOOTREQUEST op-code check it applies to inbound packets,
// since this helper is also used to inspect outbound replies in tests).
func findDHCPOption(opts []byte, want byte) ([]byte, bool) {
	for i := 0; i < len(opts); {
		code := opts[i]
		if code == dhcpOptPad {
			i++
			continue
		}
		if code == dhcpOptEnd {
			break
		}
		if i+1 >= len(opts) {
			break
		}
		length := int(opts[i+1])
		if i+2+length > len(opts) {
			break
		}
		if code == want {
			return opts[i+2 : i+2+length], true
		}
		i += 2 + length
	}
	return nil, false
}

func TestDHCPServerLeasesDistinctAddressesPerClient(t *testing.T) {
	s := &DHCPServer{leases: make(map[string]net.IP)}
	pool := Pool{RangeStart: net.IPv4(192, 168, 4, 2)}

	macA := []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	macB := []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}

	ipA := s.leaseFor(macA, pool)
	ipB := s.leaseFor(macB, pool)
	ipAAgain := s.leaseFor(macA, pool)

	if ipA.Equal(ipB) {
		t.Fatalf("expected distinct leases, got %v and %v", ipA, ipB)
	}
	if !ipA.Equal(ipAAgain) {
		t.Fatalf("expected stable lease for same MAC, got %v then %v", ipA, ipAAgain)
	}
}
