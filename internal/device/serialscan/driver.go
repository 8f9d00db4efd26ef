// Package serialscan implements the device.Driver contract over a serial
// port, grounded on the teacher's radar/serial.go RadarPort: open the port
// with go.bug.st/serial, run a read loop on its own goroutine, and expose
// start/stop/subscribe instead of the teacher's raw Events() channel.
package serialscan

import (
	"bufio"
	"strconv"
	"strings"
	"sync"

	"go.bug.st/serial"

	"github.com/anno-git/hokuyohub/internal/device"
	"github.com/anno-git/hokuyohub/internal/obslog"
)

// Driver reads newline-delimited "angle,range[,intensity]" scan lines
// from a serial range-finder and turns whole lines into a RawScan once a
// line containing only "EOS" is seen, marking one complete scan.
//
// This line protocol is a stand-in for any one vendor's real wire format;
// spec §1 explicitly keeps vendor-specific wire parsing out of core scope
// and only asks for the abstract device contract to be exercised by a
// concrete transport.
type Driver struct {
	portName string
	baud     int

	mu      sync.Mutex
	port    serial.Port
	cb      device.Callback
	stopCh  chan struct{}
	doneCh  chan struct{}
	mode    device.Mode
	skip    int
	running bool
}

// New creates a serial driver bound to portName (e.g. "/dev/ttyUSB0").
func New(portName string, baud int) *Driver {
	if baud == 0 {
		baud = 115200
	}
	return &Driver{portName: portName, baud: baud}
}

func (d *Driver) Start(p device.Params) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return true
	}

	mode := &serial.Mode{BaudRate: d.baud, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
	port, err := serial.Open(d.portName, mode)
	if err != nil {
		obslog.L.Warn("serialscan: open failed", "port", d.portName, "err", err)
		return false
	}

	d.port = port
	d.mode = p.Mode
	d.skip = p.SkipStep
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	d.running = true

	go d.readLoop(port, d.stopCh, d.doneCh)
	return true
}

func (d *Driver) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	close(d.stopCh)
	port := d.port
	done := d.doneCh
	d.running = false
	d.mu.Unlock()

	if port != nil {
		_ = port.Close()
	}
	<-done
}

func (d *Driver) Subscribe(cb device.Callback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cb = cb
}

func (d *Driver) ApplyMode(m device.Mode) bool {
	// The line protocol carries both range and intensity unconditionally;
	// a mode switch is a filtering choice the manager applies downstream,
	// so it never requires a restart here.
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

// readLoop owns the serial port for its lifetime and serializes callback
// invocations, matching spec §4.1's "each driver serializes its own
// callbacks".
func (d *Driver) readLoop(port serial.Port, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(port)
	var ranges, intens []uint16
	var startAngle, step float64
	sampleIdx := 0

	flush := func() {
		if len(ranges) == 0 {
			return
		}
		d.mu.Lock()
		cb := d.cb
		skip := d.skip
		d.mu.Unlock()
		if cb != nil {
			scan := device.RawScan{Ranges: ranges, Intensities: intens, StartAngleDeg: startAngle, StepDeg: step}
			if skip > 1 {
				scan = downsample(scan, skip)
			}
			cb(scan)
		}
		ranges, intens = nil, nil
		sampleIdx = 0
	}

	for scanner.Scan() {
		select {
		case <-stop:
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "EOS" {
			flush()
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			continue
		}
		angle, err1 := strconv.ParseFloat(fields[0], 64)
		rng, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			obslog.L.Warn("serialscan: malformed line", "line", line)
			continue
		}
		if sampleIdx == 0 {
			startAngle = angle
		} else if sampleIdx == 1 {
			step = angle - startAngle
		}
		ranges = append(ranges, uint16(rng))
		if len(fields) >= 3 {
			if iv, err := strconv.ParseFloat(fields[2], 64); err == nil {
				intens = append(intens, uint16(iv))
			}
		}
		sampleIdx++
	}
}

func downsample(scan device.RawScan, skip int) device.RawScan {
	out := device.RawScan{StartAngleDeg: scan.StartAngleDeg, StepDeg: scan.StepDeg * float64(skip)}
	for i := 0; i < len(scan.Ranges); i += skip {
		out.Ranges = append(out.Ranges, scan.Ranges[i])
		if i < len(scan.Intensities) {
			out.Intensities = append(out.Intensities, scan.Intensities[i])
		}
	}
	return out
}
