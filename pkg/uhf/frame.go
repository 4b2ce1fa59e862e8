package uhf

// Command codes.
const (
	CmdInventory         byte = 0x01
	CmdReadData          byte = 0x02
	CmdWriteData         byte = 0x03
	CmdGetReaderInfo     byte = 0x21
	CmdSetRegion         byte = 0x22
	CmdSetPower          byte = 0x2F
	CmdSetBeep           byte = 0x40
	CmdSetRelay          byte = 0x45
	CmdSetGPIO           byte = 0x46
	CmdGetGPIO           byte = 0x47
	CmdGetSerialNumber   byte = 0x4C
	CmdSetCheckAnt       byte = 0x66
	CmdRetryTimes        byte = 0x7B
	CmdConfigDRM         byte = 0x90
	CmdMeasureReturnLoss byte = 0x91
)

// Status codes. The first group is reported by the device, the second is
// produced by this package.
const (
	StatusSuccess          = 0x00
	StatusInventoryDone    = 0x01
	StatusInventoryTimeout = 0x02
	StatusMoreData         = 0x03
	StatusFlashFull        = 0x04
	StatusAntennaError     = 0xF8
	StatusNoTag            = 0xFB
	StatusCmdError         = 0xFE
	StatusParamError       = 0xFF

	StatusCommError     = 0x30
	StatusCRCError      = 0x31
	StatusPortOpenError = 0x35
)

// BroadcastAddress reaches any reader regardless of its configured address.
const BroadcastAddress byte = 0xFF

const minReplyLen = 5

// Frame is a decoded reply.
type Frame struct {
	Addr   byte
	Cmd    byte
	Status byte
	Data   []byte
}

// CRC16 computes the Reader18 checksum.
func CRC16(b []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, c := range b {
		crc ^= uint16(c)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// EncodeCommand builds a command frame.
func EncodeCommand(addr, cmd byte, data []byte) []byte {
	frame := make([]byte, 0, len(data)+5)
	frame = append(frame, byte(len(data)+4), addr, cmd)
	frame = append(frame, data...)
	return appendCRC(frame)
}

// EncodeReply builds a reply frame. Readers produce these; the package uses
// it to simulate devices.
func EncodeReply(addr, cmd, status byte, data []byte) []byte {
	frame := make([]byte, 0, len(data)+6)
	frame = append(frame, byte(len(data)+5), addr, cmd, status)
	frame = append(frame, data...)
	return appendCRC(frame)
}

func appendCRC(frame []byte) []byte {
	crc := CRC16(frame)
	return append(frame, byte(crc), byte(crc>>8))
}

// ParseReply extracts the first valid reply from buf. It returns the frame,
// the number of bytes consumed (including any garbage skipped while
// resynchronizing) and whether a frame was found. When no complete frame is
// available yet, consumed reports how many leading bytes can be discarded.
//
// A length byte whose frame runs past the end of buf does not hide a
// complete reply that starts later in buf.
func ParseReply(buf []byte) (Frame, int, bool) {
	for i := 0; i < len(buf); i++ {
		f, n, ok, partial := replyAt(buf[i:])
		if ok {
			return f, i + n, true
		}
		if !partial {
			continue
		}
		for j := i + 1; j < len(buf); j++ {
			if f, n, ok, _ := replyAt(buf[j:]); ok {
				return f, j + n, true
			}
		}
		return Frame{}, i, false
	}
	return Frame{}, len(buf), false
}

// replyAt decodes a reply starting at buf[0]. partial reports a plausible
// length byte whose frame is not complete yet.
func replyAt(buf []byte) (f Frame, consumed int, ok, partial bool) {
	n := int(buf[0])
	if n < minReplyLen {
		return Frame{}, 0, false, false
	}
	if len(buf) < n+1 {
		return Frame{}, 0, false, true
	}
	raw := buf[:n+1]
	want := uint16(raw[n-1]) | uint16(raw[n])<<8
	if CRC16(raw[:n-1]) != want {
		return Frame{}, 0, false, false
	}
	data := make([]byte, n-5)
	copy(data, raw[4:n-1])
	return Frame{Addr: raw[1], Cmd: raw[2], Status: raw[3], Data: data}, n + 1, true, false
}
