package uhf

import (
	"encoding/hex"
	"strings"
)

// Info is the decoded Get Reader Information reply.
type Info struct {
	Version    [2]byte
	ReaderType byte
	Protocols  byte
	Band       byte
	MaxFreq    byte
	MinFreq    byte
	Power      byte
	ScanTime   byte
	Antennas   int
	Beep       byte
	CheckAnt   byte
}

func decodeInfo(data []byte) Info {
	at := func(i int) byte {
		if i < len(data) {
			return data[i]
		}
		return 0
	}
	info := Info{
		Version:    [2]byte{at(0), at(1)},
		ReaderType: at(2),
		Protocols:  at(3),
		MaxFreq:    at(4) & 0x3F,
		MinFreq:    at(5) & 0x3F,
		Band:       (at(4)&0xC0)>>4 | at(5)>>6,
		Power:      at(6),
		ScanTime:   at(7),
		Beep:       at(9),
		CheckAnt:   at(12),
	}
	for mask := at(8); mask != 0; mask >>= 1 {
		if mask&1 != 0 {
			info.Antennas++
		}
	}
	return info
}

// ReaderInfo queries the reader.
func (r *Reader) ReaderInfo() (Info, int) {
	frame, err := r.exec(CmdGetReaderInfo, nil)
	if err != nil {
		r.debugf("%v", err)
		return Info{}, StatusCommError
	}
	return decodeInfo(frame.Data), int(frame.Status)
}

// GetUHFInformation fills the single-element output slices with the reader
// information and returns the status.
func (r *Reader) GetUHFInformation(version, readerType, power, band, maxFre, minFre, beep []byte, ant []int) int {
	info, st := r.ReaderInfo()
	if st != StatusSuccess {
		return st
	}
	copy(version, info.Version[:])
	put := func(dst []byte, v byte) {
		if len(dst) > 0 {
			dst[0] = v
		}
	}
	put(readerType, info.ReaderType)
	put(power, info.Power)
	put(band, info.Band)
	put(maxFre, info.MaxFreq)
	put(minFre, info.MinFreq)
	put(beep, info.Beep)
	if len(ant) > 0 {
		ant[0] = info.Antennas
	}
	return st
}

// GetDeviceID returns the reader serial number as hex, or "" on failure.
func (r *Reader) GetDeviceID() string {
	frame, err := r.exec(CmdGetSerialNumber, nil)
	if err != nil || frame.Status != StatusSuccess {
		return ""
	}
	return upperHex(frame.Data)
}

// SetRfPower sets the output power in dBm.
func (r *Reader) SetRfPower(power int) int {
	return r.status(CmdSetPower, byte(power))
}

// SetRegion sets the frequency band and the channel index window.
func (r *Reader) SetRegion(band, maxFre, minFre int) int {
	hi := byte(band&0x0C)<<4 | byte(maxFre&0x3F)
	lo := byte(band&0x03)<<6 | byte(minFre&0x3F)
	return r.status(CmdSetRegion, hi, lo)
}

// SetBeepNotification turns the buzzer on (1) or off (0).
func (r *Reader) SetBeepNotification(enabled int) int {
	return r.status(CmdSetBeep, byte(enabled))
}

// GetRetryTimes reads the tag operation retry count into out[0].
func (r *Reader) GetRetryTimes(out []byte) int {
	return r.query(CmdRetryTimes, out, 0x00)
}

// SetRetryTimes sets the tag operation retry count.
func (r *Reader) SetRetryTimes(times byte) int {
	return r.status(CmdRetryTimes, 0x80|times&0x07)
}

// ConfigDRM toggles dense reader mode; in[0] is 1 to enable.
func (r *Reader) ConfigDRM(in []byte) int {
	if len(in) == 0 {
		return StatusParamError
	}
	return r.status(CmdConfigDRM, 0x80|in[0]&0x01)
}

// SetCheckAnt enables or disables antenna presence checking.
func (r *Reader) SetCheckAnt(enabled byte) int {
	return r.status(CmdSetCheckAnt, enabled)
}

// SetRelay drives the relay outputs.
func (r *Reader) SetRelay(value byte) int {
	return r.status(CmdSetRelay, value)
}

// SetGPIO drives the GPIO outputs.
func (r *Reader) SetGPIO(value byte) int {
	return r.status(CmdSetGPIO, value)
}

// GetGPIOStatus reads the GPIO pin states into out.
func (r *Reader) GetGPIOStatus(out []byte) int {
	return r.query(CmdGetGPIO, out)
}

// MeasureReturnLoss measures antenna return loss at a frequency given as
// four big-endian kHz bytes. The result in dB is stored in out[0].
func (r *Reader) MeasureReturnLoss(freq []byte, ant byte, out []byte) int {
	if len(freq) != 4 {
		return StatusParamError
	}
	data := append(append([]byte{}, freq...), ant)
	return r.query(CmdMeasureReturnLoss, out, data...)
}

// ReadDataByEPC reads num words from a memory bank of the tag with the
// given EPC. It returns the data as upper-case hex, or "" on failure.
func (r *Reader) ReadDataByEPC(epc string, mem, wordPtr, num byte, pwd []byte) string {
	epcBytes, err := hex.DecodeString(strings.TrimSpace(epc))
	if err != nil || len(epcBytes)%2 != 0 {
		r.debugf("bad EPC %q", epc)
		return ""
	}
	data := []byte{byte(len(epcBytes) / 2)}
	data = append(data, epcBytes...)
	data = append(data, mem, wordPtr, num)
	data = append(data, fixedPassword(pwd)...)
	frame, err := r.exec(CmdReadData, data)
	if err != nil {
		r.debugf("%v", err)
		return ""
	}
	if frame.Status != StatusSuccess {
		r.debugf("read data status 0x%02X", frame.Status)
		return ""
	}
	return upperHex(frame.Data)
}

// WriteDataByEPC writes hex data, which must be a whole number of words,
// into a memory bank of the tag with the given EPC.
func (r *Reader) WriteDataByEPC(epc string, mem, wordPtr byte, pwd []byte, data string) int {
	epcBytes, err := hex.DecodeString(strings.TrimSpace(epc))
	if err != nil || len(epcBytes)%2 != 0 {
		return StatusParamError
	}
	words, err := hex.DecodeString(strings.TrimSpace(data))
	if err != nil || len(words) == 0 || len(words)%2 != 0 {
		return StatusParamError
	}
	payload := []byte{byte(len(words) / 2), byte(len(epcBytes) / 2)}
	payload = append(payload, epcBytes...)
	payload = append(payload, mem, wordPtr)
	payload = append(payload, words...)
	payload = append(payload, fixedPassword(pwd)...)
	return r.status(CmdWriteData, payload...)
}

func fixedPassword(pwd []byte) []byte {
	out := make([]byte, 4)
	copy(out, pwd)
	return out
}
