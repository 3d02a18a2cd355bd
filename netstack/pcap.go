package netstack

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// PCAPDumper wraps a RadioLink and records the frames it carries to a
// PCAP file, for offline inspection of AP/STA traffic during debugging.
// Each record holds at most the first 256 bytes of a frame, and frames
// that arrive while the capture queue is full are left out of the file.
type PCAPDumper struct {
	cancel    context.CancelFunc
	closeOnce sync.Once
	joined    chan struct{}
	logger    Logger
	link      RadioLink
	pich      chan *pcapPacketInfo
}

type pcapPacketInfo struct {
	originalLength int
	snapshot       []byte
}

// NewPCAPDumper wraps link, capturing the frames it sends or receives
// into filename. Callers must call Close to flush and release the file.
func NewPCAPDumper(filename string, link RadioLink, logger Logger) *PCAPDumper {
	const manyPackets = 4096
	ctx, cancel := context.WithCancel(context.Background())
	pd := &PCAPDumper{
		cancel: cancel,
		joined: make(chan struct{}),
		logger: logger,
		link:   link,
		pich:   make(chan *pcapPacketInfo, manyPackets),
	}
	go pd.loop(ctx, filename)
	return pd
}

var _ RadioLink = &PCAPDumper{}

func (pd *PCAPDumper) FrameAvailable() <-chan struct{} { return pd.link.FrameAvailable() }
func (pd *PCAPDumper) Closed() <-chan struct{}         { return pd.link.Closed() }

func (pd *PCAPDumper) ReadFrameNonblocking() (*Frame, error) {
	frame, err := pd.link.ReadFrameNonblocking()
	if err != nil {
		return nil, err
	}
	pd.deliver(frame.Payload)
	return frame, nil
}

func (pd *PCAPDumper) WriteFrame(frame *Frame) error {
	pd.deliver(frame.Payload)
	return pd.link.WriteFrame(frame)
}

func (pd *PCAPDumper) deliver(packet []byte) {
	captureLength := 256
	if len(packet) < captureLength {
		captureLength = len(packet)
	}
	info := &pcapPacketInfo{
		originalLength: len(packet),
		snapshot:       append([]byte{}, packet[:captureLength]...),
	}
	select {
	case pd.pich <- info:
	default:
		// drop from the capture rather than block the data path
	}
}

func (pd *PCAPDumper) loop(ctx context.Context, filename string) {
	defer close(pd.joined)

	filep, err := os.Create(filename)
	if err != nil {
		pd.logger.Warnf("netstack: PCAPDumper: os.Create: %s", err.Error())
		return
	}
	defer filep.Close()

	w := pcapgo.NewWriter(filep)
	const largeSnapLen = 262144
	if err := w.WriteFileHeader(largeSnapLen, layers.LinkTypeRaw); err != nil {
		pd.logger.Warnf("netstack: PCAPDumper: WriteFileHeader: %s", err.Error())
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case info := <-pd.pich:
			ci := gopacket.CaptureInfo{
				Timestamp:     time.Now(),
				CaptureLength: len(info.snapshot),
				Length:        info.originalLength,
			}
			if err := w.WritePacket(ci, info.snapshot); err != nil {
				pd.logger.Warnf("netstack: PCAPDumper: WritePacket: %s", err.Error())
			}
		}
	}
}

// Close stops the background writer and flushes the PCAP file.
func (pd *PCAPDumper) Close() error {
	pd.closeOnce.Do(func() {
		pd.cancel()
		pd.logger.Debugf("netstack: PCAPDumper: awaiting background writer")
		<-pd.joined
	})
	return nil
}
