package uhf

import "encoding/hex"

// ReaderParameter holds the settings used by StartRead.
type ReaderParameter struct {
	IvtType    int    // 0 EPC only, 1 EPC with TID
	Memory     int    // bank read alongside the EPC
	Password   string // access password, eight hex digits
	QValue     int
	Session    int // 0-3, or 255 to let the reader choose
	ScanTime   int // per antenna, in units of 100ms
	Target     int
	ReTryCount int // retries after a failed round
	Antenna    int // antenna bit mask
	TidPtr     int
	TidLen     int
}

// DefaultReaderParameter returns the settings a freshly built reader uses.
func DefaultReaderParameter() ReaderParameter {
	return ReaderParameter{
		Memory:   1,
		Password: "00000000",
		QValue:   6,
		Session:  255,
		ScanTime: 20,
		Antenna:  1,
	}
}

func (p ReaderParameter) valid() bool {
	switch {
	case p.IvtType < 0 || p.IvtType > 1:
		return false
	case p.Memory < 0 || p.Memory > 3:
		return false
	case p.QValue < 0 || p.QValue > 15:
		return false
	case p.Session != 255 && (p.Session < 0 || p.Session > 3):
		return false
	case p.ScanTime < 0 || p.ScanTime > 255:
		return false
	case p.Target < 0 || p.Target > 1:
		return false
	case p.ReTryCount < 0 || p.ReTryCount > 255:
		return false
	case p.Antenna < 0 || p.Antenna > 0xFF:
		return false
	case p.TidPtr < 0 || p.TidPtr > 255 || p.TidLen < 0 || p.TidLen > 15:
		return false
	}
	pwd, err := hex.DecodeString(p.Password)
	return err == nil && len(pwd) == 4
}

// GetInventoryParameter returns a copy of the current settings.
func (r *Reader) GetInventoryParameter() *ReaderParameter {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.param
	return &p
}

// SetInventoryParameter stores new settings. They take effect at the next
// StartRead.
func (r *Reader) SetInventoryParameter(p *ReaderParameter) int {
	if p == nil || !p.valid() {
		return StatusParamError
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.param = *p
	return StatusSuccess
}
