package remote

import (
	"bufio"
	"fmt"
	"time"

	serial "github.com/albenik/go-serial/v2"
)

// SerialPort wraps an open serial line, giving rig drivers both raw byte
// I/O (for BCD/CI-V framing) and line-oriented I/O (for the ASCII
// ';'-terminated and space-terminated command sets).
//
// Grounded on other_examples' wl2k-go AX.25-over-Kenwood-TNC transport
// (transport-ax25-kenwood.go.go), the only file in the retrieved pack
// using github.com/albenik/go-serial/v2: it opens the device with
// serial.Open(dev, serial.WithBaudrate(baud)) and drives it as a plain
// io.ReadWriteCloser, which is the shape kept here.
type SerialPort struct {
	port   *serial.Port
	reader *bufio.Reader
}

// OpenSerial opens dev at baud (spec §6.1 "ioport, iospeed").
func OpenSerial(dev string, baud int) (*SerialPort, error) {
	p, err := serial.Open(dev,
		serial.WithBaudrate(baud),
		serial.WithDataBits(8),
		serial.WithParity(serial.NoParity),
		serial.WithStopBits(serial.OneStopBit),
		serial.WithReadTimeout(200),
	)
	if err != nil {
		return nil, fmt.Errorf("remote: open %s: %w", dev, err)
	}
	return &SerialPort{port: p, reader: bufio.NewReader(p)}, nil
}

func (s *SerialPort) Read(p []byte) (int, error)  { return s.reader.Read(p) }
func (s *SerialPort) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *SerialPort) Close() error                { return s.port.Close() }

// WriteLine writes line followed by terminator (';' for ft950, ' '-joined
// command verbs for the kenwood family callers assemble themselves).
func (s *SerialPort) WriteLine(line string, terminator byte) error {
	_, err := s.port.Write(append([]byte(line), terminator))
	return err
}

// ReadLine reads bytes up to and including terminator, with a bounded
// overall deadline; used for request-response rigs that reply with a
// terminated ASCII status line.
func (s *SerialPort) ReadLine(terminator byte, deadline time.Duration) (string, error) {
	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := s.reader.ReadString(terminator)
		done <- result{line, err}
	}()
	select {
	case r := <-done:
		return r.line, r.err
	case <-time.After(deadline):
		return "", fmt.Errorf("remote: read timeout after %s", deadline)
	}
}
