// Command roboarmctl is a line-oriented interactive client for
// roboarmd: "go <rot> <sho> <for> <cla>" enqueues a joint target, "wifi
// <ssid> <password>" reconfigures the station credentials, and "exit"
// closes the connection.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/guamoko995/roboarm/units"
	"github.com/guamoko995/roboarm/wificonfig"
	"github.com/guamoko995/roboarm/wire"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <host:port>\n", os.Args[0])
		os.Exit(1)
	}
	addr := os.Args[1]

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "roboarmctl: connect to %s: %v\n", addr, err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Printf("connected to %s\n", addr)
	fmt.Println("commands: go <rot> <sho> <for> <cla> | wifi <ssid> <password> | exit")

	done := make(chan struct{})
	go readResponses(conn, done)

	w := bufio.NewWriter(conn)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			break
		}

		req, err := parseLine(line)
		if err != nil {
			fmt.Println(err)
			continue
		}
		if req == nil {
			continue
		}

		body, err := wire.MarshalRequest(*req)
		if err != nil {
			fmt.Printf("serialize error: %v\n", err)
			continue
		}
		if err := wire.WritePacket(w, body); err != nil {
			fmt.Printf("write error: %v\n", err)
			break
		}
		if err := w.Flush(); err != nil {
			fmt.Printf("flush error: %v\n", err)
			break
		}
	}

	conn.Close()
	<-done
}

func parseLine(line string) (*wire.Request, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "go":
		if len(fields) != 5 {
			return nil, fmt.Errorf("usage: go <rotation> <shoulder> <forearm> <claw>")
		}
		var coords [4]float32
		for i, s := range fields[1:] {
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid coordinate %q: %w", s, err)
			}
			coords[i] = float32(v)
		}
		pos := units.Position{
			Rotation: units.New[units.Radians](coords[0]),
			Shoulder: units.New[units.Radians](coords[1]),
			Forearm:  units.New[units.Radians](coords[2]),
			Claw:     units.New[units.Radians](coords[3]),
		}
		return &wire.Request{Enqueue: &pos}, nil

	case "wifi":
		if len(fields) != 3 {
			return nil, fmt.Errorf("usage: wifi <ssid> <password>")
		}
		ssid, password := fields[1], fields[2]
		if len(ssid) > wificonfig.MaxSSIDLen {
			return nil, fmt.Errorf("ssid too long")
		}
		if len(password) > wificonfig.MaxPasswordLen {
			return nil, fmt.Errorf("password too long")
		}
		cfg := wificonfig.WifiConfig{
			Client: &wificonfig.ClientConfig{
				SSID:       ssid,
				Password:   password,
				AuthMethod: wificonfig.AuthWPA2Personal,
				Protocols:  wificonfig.DefaultProtocolSet(),
			},
		}
		return &wire.Request{Command: &wire.Command{ConfigureWifi: &cfg}}, nil

	default:
		return nil, fmt.Errorf("unknown command %q", fields[0])
	}
}

func readResponses(conn net.Conn, done chan<- struct{}) {
	defer close(done)
	r := bufio.NewReader(conn)
	for {
		body, err := wire.ReadPacket(r, wire.MaxWriteBodySize)
		if err != nil {
			fmt.Println("connection closed by server")
			return
		}
		resp, err := wire.UnmarshalResponse(body)
		if err != nil {
			fmt.Printf("malformed response: %v\n", err)
			continue
		}
		switch resp {
		case wire.ResponsePositionAck:
			fmt.Println("[server] position reached")
		case wire.ResponseCommandAck:
			fmt.Println("[server] command acknowledged")
		}
	}
}
