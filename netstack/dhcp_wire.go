package netstack

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Minimal RFC 2131 BOOTP/DHCP message parsing: just enough fields to
// drive the DISCOVER/OFFER/REQUEST/ACK exchange the access point needs.

const (
	dhcpOpBootRequest = 1
	dhcpOpBootReply   = 2

	dhcpMagicCookie = 0x63825363

	dhcpOptPad          = 0
	dhcpOptSubnetMask   = 1
	dhcpOptRouter       = 3
	dhcpOptDNS          = 6
	dhcpOptRequestedIP  = 50
	dhcpOptLeaseTime    = 51
	dhcpOptMessageType  = 53
	dhcpOptServerID     = 54
	dhcpOptEnd          = 255

	dhcpDiscover = 1
	dhcpOffer    = 2
	dhcpRequest  = 3
	dhcpAck      = 5
)

const dhcpFixedHeaderLen = 240 // through the end of the magic cookie

type dhcpPacket struct {
	xid     uint32
	chaddr  []byte
	options map[byte][]byte
}

func parseDHCPPacket(data []byte) (*dhcpPacket, error) {
	if len(data) < dhcpFixedHeaderLen {
		return nil, fmt.Errorf("netstack: dhcp: packet too short")
	}
	if data[0] != dhcpOpBootRequest {
		return nil, fmt.Errorf("netstack: dhcp: not a BOOTREQUEST")
	}
	if binary.BigEndian.Uint32(data[236:240]) != dhcpMagicCookie {
		return nil, fmt.Errorf("netstack: dhcp: bad magic cookie")
	}
	pkt := &dhcpPacket{
		xid:     binary.BigEndian.Uint32(data[4:8]),
		chaddr:  append([]byte{}, data[28:34]...),
		options: make(map[byte][]byte),
	}

	opts := data[dhcpFixedHeaderLen:]
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
		pkt.options[code] = append([]byte{}, opts[i+2:i+2+length]...)
		i += 2 + length
	}
	return pkt, nil
}

func buildDHCPReply(req *dhcpPacket, msgType byte, yiaddr net.IP, pool Pool) []byte {
	buf := make([]byte, dhcpFixedHeaderLen)
	buf[0] = dhcpOpBootReply
	buf[1] = 1 // htype: ethernet
	buf[2] = 6 // hlen
	binary.BigEndian.PutUint32(buf[4:8], req.xid)
	copy(buf[16:20], yiaddr.To4())
	copy(buf[20:24], pool.ServerIP.To4())
	copy(buf[28:34], req.chaddr)
	binary.BigEndian.PutUint32(buf[236:240], dhcpMagicCookie)

	buf = appendDHCPOption(buf, dhcpOptMessageType, []byte{msgType})
	buf = appendDHCPOption(buf, dhcpOptServerID, pool.ServerIP.To4())
	buf = appendDHCPOption(buf, dhcpOptSubnetMask, pool.SubnetMask.To4())
	buf = appendDHCPOption(buf, dhcpOptRouter, pool.ServerIP.To4())
	leaseBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(leaseBytes, pool.LeaseSecs)
	buf = appendDHCPOption(buf, dhcpOptLeaseTime, leaseBytes)
	if pool.DNS != nil {
		buf = appendDHCPOption(buf, dhcpOptDNS, pool.DNS.To4())
	}
	buf = append(buf, dhcpOptEnd)
	return buf
}

func appendDHCPOption(buf []byte, code byte, value []byte) []byte {
	buf = append(buf, code, byte(len(value)))
	return append(buf, value...)
}
