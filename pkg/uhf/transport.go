package uhf

import (
	"errors"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Transport is a byte stream to a reader. Read returns (0, nil) once the
// read timeout expires without data.
type Transport interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Opener opens the transport for a connection type (0 = serial, anything
// else = TCP), an address and a baud rate or port number.
type Opener func(connType int, addr string, value int) (Transport, error)

// DefaultBaud is used when a serial connection is requested without a baud.
const DefaultBaud = 57600

const dialTimeout = 3 * time.Second

// OpenTransport is the default Opener.
func OpenTransport(connType int, addr string, value int) (Transport, error) {
	if connType == 0 {
		return openSerial(addr, value)
	}
	return dialTCP(addr, value)
}

func openSerial(name string, baud int) (Transport, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(PortName(name, runtime.GOOS), mode)
	if err != nil {
		return nil, fmt.Errorf("open %s at %d baud: %w", name, baud, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("reset %s: %w", name, err)
	}
	return port, nil
}

func dialTCP(host string, port int) (Transport, error) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), dialTimeout)
	if err != nil {
		return nil, err
	}
	return NewConnTransport(conn), nil
}

// ConnTransport adapts a net.Conn to Transport.
type ConnTransport struct {
	net.Conn
	timeout time.Duration
}

// NewConnTransport wraps conn.
func NewConnTransport(conn net.Conn) *ConnTransport {
	return &ConnTransport{Conn: conn, timeout: time.Second}
}

// SetReadTimeout sets the timeout applied to each Read.
func (c *ConnTransport) SetReadTimeout(t time.Duration) error {
	c.timeout = t
	return nil
}

func (c *ConnTransport) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	n, err := c.Conn.Read(p)
	var ne net.Error
	if err != nil && errors.As(err, &ne) && ne.Timeout() {
		return n, nil
	}
	return n, err
}

var comName = regexp.MustCompile(`(?i)^COM\d+$`)

// PortName normalizes Windows serial port names: `C:\dev\COM3` and
// `\\.\COM3` both become COM3. Names on other systems are returned as is.
func PortName(name, goos string) string {
	name = strings.TrimSpace(name)
	if goos != "windows" {
		return name
	}
	last := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if comName.MatchString(last) {
		return strings.ToUpper(last)
	}
	return name
}

// Ports lists serial ports present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
