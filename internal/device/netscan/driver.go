// Package netscan implements the device.Driver contract over UDP,
// grounded on the teacher's internal/lidar/network.UDPListener: a
// context-cancellable read loop polling with a short read deadline so
// Stop() returns promptly, optional packet capture via gopacket for
// replay/diagnostics instead of a live socket.
package netscan

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/anno-git/hokuyohub/internal/device"
	"github.com/anno-git/hokuyohub/internal/obslog"
)

// Driver receives scan packets over UDP from a network range-finder.
// Each packet is treated as one complete scan encoded as a flat
// angle-major payload: 2-byte start angle (centidegrees), 2-byte step
// (centidegrees), then uint16 range samples, matching the wire shape the
// teacher's Parser abstraction decodes for its own sensor family.
type Driver struct {
	addr    string
	rcvBuf  int
	mode    device.Mode
	skip    int

	mu     sync.Mutex
	conn   *net.UDPConn
	cb     device.Callback
	cancel context.CancelFunc
	doneCh chan struct{}
}

// New creates a netscan driver bound to a UDP listen address, e.g.
// ":10940".
func New(addr string, rcvBuf int) *Driver {
	if rcvBuf == 0 {
		rcvBuf = 1 << 20
	}
	return &Driver{addr: addr, rcvBuf: rcvBuf}
}

func (d *Driver) Start(p device.Params) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		return true
	}

	udpAddr, err := net.ResolveUDPAddr("udp", d.addr)
	if err != nil {
		obslog.L.Warn("netscan: resolve failed", "addr", d.addr, "err", err)
		return false
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		obslog.L.Warn("netscan: listen failed", "addr", d.addr, "err", err)
		return false
	}
	if err := conn.SetReadBuffer(d.rcvBuf); err != nil {
		obslog.L.Warn("netscan: set read buffer failed", "err", err)
	}

	d.conn = conn
	d.mode = p.Mode
	d.skip = p.SkipStep

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.doneCh = make(chan struct{})

	go d.readLoop(ctx, conn, d.doneCh)
	return true
}

func (d *Driver) Stop() {
	d.mu.Lock()
	if d.conn == nil {
		d.mu.Unlock()
		return
	}
	d.cancel()
	conn := d.conn
	done := d.doneCh
	d.conn = nil
	d.mu.Unlock()

	_ = conn.Close()
	<-done
}

func (d *Driver) Subscribe(cb device.Callback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cb = cb
}

func (d *Driver) ApplyMode(m device.Mode) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = m
	return true
}

func (d *Driver) ApplySkipStep(n int) bool {
	if n < 1 {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.skip = n
	return true
}

func (d *Driver) readLoop(ctx context.Context, conn *net.UDPConn, done chan<- struct{}) {
	defer close(done)

	buf := make([]byte, 65536)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			obslog.L.Warn("netscan: read error", "err", err)
			continue
		}

		scan, ok := decodePacket(buf[:n])
		if !ok {
			continue
		}

		d.mu.Lock()
		cb := d.cb
		skip := d.skip
		d.mu.Unlock()
		if cb == nil {
			continue
		}
		if skip > 1 {
			scan = downsample(scan, skip)
		}
		cb(scan)
	}
}

func decodePacket(pkt []byte) (device.RawScan, bool) {
	if len(pkt) < 4 {
		return device.RawScan{}, false
	}
	startAngle := float64(int16(uint16(pkt[0])|uint16(pkt[1])<<8)) / 100.0
	step := float64(int16(uint16(pkt[2])|uint16(pkt[3])<<8)) / 100.0

	body := pkt[4:]
	n := len(body) / 2
	ranges := make([]uint16, n)
	for i := 0; i < n; i++ {
		ranges[i] = uint16(body[2*i]) | uint16(body[2*i+1])<<8
	}
	return device.RawScan{StartAngleDeg: startAngle, StepDeg: step, Ranges: ranges}, true
}

func downsample(scan device.RawScan, skip int) device.RawScan {
	out := device.RawScan{StartAngleDeg: scan.StartAngleDeg, StepDeg: scan.StepDeg * float64(skip)}
	for i := 0; i < len(scan.Ranges); i += skip {
		out.Ranges = append(out.Ranges, scan.Ranges[i])
	}
	return out
}

// ReplayPCAP feeds previously captured UDP payloads from a pcap file
// through cb as if they had just arrived live. Intended for offline
// diagnostics of a recorded sensor session, mirroring the teacher's
// pcap_realtime.go capture-replay path but driving the device.Callback
// contract instead of the teacher's internal frame builder.
func ReplayPCAP(path string, cb device.Callback) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("netscan: open pcap: %w", err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return fmt.Errorf("netscan: pcap reader: %w", err)
	}

	for {
		data, _, err := r.ReadPacketData()
		if err != nil {
			break
		}
		payload := udpPayload(data)
		if payload == nil {
			continue
		}
		if scan, ok := decodePacket(payload); ok {
			cb(scan)
		}
	}
	return nil
}

// udpPayload strips Ethernet/IPv4/UDP headers from a captured frame using
// gopacket's layer decoders, returning the UDP payload bytes.
func udpPayload(data []byte) []byte {
	pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	udpLayer := pkt.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return nil
	}
	return udpLayer.LayerPayload()
}
