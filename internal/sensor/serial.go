package sensor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
	"hazard-monitor/internal/models"
)

// SourceSerial tags pairs read from the serial sensor
const SourceSerial = "serial"

// Reader turns "T:<celsius>,H:<percent>" lines from a DHT bridge into
// sensor pairs.
type Reader struct {
	port     io.ReadCloser
	deviceID string
}

// Open opens the serial port at the given baud rate, 8N1
func Open(portName string, baud int, deviceID string) (*Reader, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	log.Printf("Serial: Opened %s at %d baud", portName, baud)
	return NewReader(port, deviceID), nil
}

// NewReader wraps an already opened stream
func NewReader(port io.ReadCloser, deviceID string) *Reader {
	return &Reader{port: port, deviceID: deviceID}
}

// Close closes the underlying port
func (r *Reader) Close() error {
	return r.port.Close()
}

// Monitor reads lines until ctx is cancelled or the port fails. Malformed
// lines are logged and skipped.
func (r *Reader) Monitor(ctx context.Context, out chan<- models.SensorPair) error {
	defer r.Close()

	// unblock Scan on cancellation
	go func() {
		<-ctx.Done()
		r.port.Close()
	}()

	scan := bufio.NewScanner(r.port)
	for scan.Scan() {
		line := scan.Text()

		temperature, humidity, err := ParseLine(line)
		if err != nil {
			log.Printf("Serial: Skipping line %q: %v", line, err)
			continue
		}

		pair := models.SensorPair{
			Timestamp:   time.Now(),
			DeviceID:    r.deviceID,
			Temperature: temperature,
			Humidity:    humidity,
			Source:      SourceSerial,
		}

		select {
		case out <- pair:
		case <-ctx.Done():
			return nil
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	return scan.Err()
}

// ParseLine parses one "T:15.5,H:92.0" line. Field order does not matter.
func ParseLine(line string) (temperature, humidity float64, err error) {
	var haveT, haveH bool

	for _, field := range strings.Split(strings.TrimSpace(line), ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(field), ":")
		if !ok {
			return 0, 0, fmt.Errorf("malformed field %q", field)
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid value for %s: %w", key, err)
		}

		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "T":
			temperature, haveT = v, true
		case "H":
			humidity, haveH = v, true
		default:
			return 0, 0, fmt.Errorf("unknown field %q", key)
		}
	}

	if !haveT || !haveH {
		return 0, 0, fmt.Errorf("line needs both T and H")
	}
	return temperature, humidity, nil
}
