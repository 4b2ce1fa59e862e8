package core

import (
	"fmt"
	"strings"
)

// Transport modes accepted by CONNECT.
const (
	ModeTCP    = "tcp"
	ModeSerial = "serial"
)

// CONNECT defaults shared by the bridge and its config file.
const (
	DefaultLabel = "ST-8504"
	DefaultIP    = "192.168.0.250"
	DefaultPort  = 27011
)

// FallbackBauds is the order in which serial baud rates are probed when the
// requested one (if any) fails.
var FallbackBauds = []int{57600, 115200, 38400, 19200, 9600, 230400}

// NormalizeMode maps user supplied transport names onto ModeTCP or
// ModeSerial. Unknown names fall back to tcp.
func NormalizeMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "serial", "usb", "rs232":
		return ModeSerial
	default:
		return ModeTCP
	}
}

// BaudCandidates returns the ordered, deduplicated list of baud rates to try:
// preferred first when positive, then FallbackBauds.
func BaudCandidates(preferred int) []int {
	out := make([]int, 0, len(FallbackBauds)+1)
	seen := make(map[int]bool, len(FallbackBauds)+1)
	if preferred > 0 {
		out = append(out, preferred)
		seen[preferred] = true
	}
	for _, b := range FallbackBauds {
		if seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out
}

// FirmwarePrefix picks the firmware family name from the reader type byte
// reported by Get Reader Information.
func FirmwarePrefix(readerType byte) string {
	switch readerType {
	case 0x68:
		return "UHF2889C6M--"
	case 0x76:
		return "UHF7189M--"
	case 0x56:
		return "UHF5189M--"
	case 0x38:
		return "UHF3189M--"
	default:
		return "UHFREADER288--"
	}
}

// FirmwareString formats the firmware label, e.g. "UHF7189M--01.02".
func FirmwareString(readerType, major, minor byte) string {
	return fmt.Sprintf("%s%02d.%02d", FirmwarePrefix(readerType), major, minor)
}

// FrequencyBytes encodes a kilohertz frequency as 4 big-endian bytes.
func FrequencyBytes(khz int) []byte {
	return []byte{byte(khz >> 24), byte(khz >> 16), byte(khz >> 8), byte(khz)}
}

// ZeroBasedAntenna converts a 1-based antenna number from the UI into the
// 0-based index the device expects, clamped to [0,255].
func ZeroBasedAntenna(ant int) byte {
	idx := ant - 1
	if idx < 0 {
		idx = 0
	}
	if idx > 255 {
		idx = 255
	}
	return byte(idx)
}
