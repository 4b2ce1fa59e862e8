package uhf

import (
	"encoding/hex"
	"errors"
	"math/bits"
	"strings"
	"time"
)

// TagCallback receives inventory results. Methods are called from the
// inventory goroutine and must not call StopRead.
type TagCallback interface {
	TagCallback(tag *ReadTag)
	ReadOver()
	TagCallbackFailed(rc int)
}

// ReadTag is one tag observation.
type ReadTag struct {
	EpcID      string
	MemID      string
	RSSI       int
	AntID      int
	PhaseBegin int
	PhaseEnd   int
	FreqKhz    int
	DevName    string
}

// Record flags carried in the top bits of the record length byte.
const (
	recordExtended = 0x40
	recordLenMask  = 0x3F
	extendedLen    = 7
)

type inventory struct {
	stop chan struct{}
	done chan struct{}
}

// SetCallBack installs the receiver for inventory results.
func (r *Reader) SetCallBack(cb TagCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cb = cb
}

func (r *Reader) callback() TagCallback {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cb
}

// StartRead starts continuous inventory on a background goroutine using the
// current inventory parameters. Starting twice is a no-op.
func (r *Reader) StartRead() int {
	if !r.Connected() {
		return StatusCommError
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inv != nil {
		return StatusSuccess
	}
	inv := &inventory{stop: make(chan struct{}), done: make(chan struct{})}
	r.inv = inv
	go r.runInventory(inv, r.param)
	return StatusSuccess
}

// StopRead stops inventory and waits for the goroutine to exit.
func (r *Reader) StopRead() {
	r.mu.Lock()
	inv := r.inv
	r.inv = nil
	r.mu.Unlock()
	if inv == nil {
		return
	}
	close(inv.stop)
	<-inv.done
}

func (r *Reader) runInventory(inv *inventory, p ReaderParameter) {
	defer close(inv.done)
	stopped := func() bool {
		select {
		case <-inv.stop:
			return true
		default:
			return false
		}
	}
	for !stopped() {
		for _, ant := range antennaIndexes(p.Antenna) {
			if stopped() {
				return
			}
			rc, err := r.roundWithRetry(p, ant)
			if errors.Is(err, errNotConnected) {
				if cb := r.callback(); cb != nil {
					cb.TagCallbackFailed(StatusCommError)
				}
				r.mu.Lock()
				if r.inv == inv {
					r.inv = nil
				}
				r.mu.Unlock()
				return
			}
			if !roundOK(rc) {
				if cb := r.callback(); cb != nil {
					cb.TagCallbackFailed(rc)
				}
			}
		}
		if cb := r.callback(); cb != nil {
			cb.ReadOver()
		}
		select {
		case <-inv.stop:
			return
		case <-time.After(r.roundGap):
		}
	}
}

func roundOK(rc int) bool {
	switch rc {
	case StatusSuccess, StatusInventoryDone, StatusInventoryTimeout, StatusMoreData, StatusNoTag:
		return true
	}
	return false
}

func (r *Reader) roundWithRetry(p ReaderParameter, ant int) (int, error) {
	var (
		rc  int
		err error
	)
	for attempt := 0; attempt <= p.ReTryCount; attempt++ {
		rc, err = r.inventoryRound(p, ant)
		if err == nil || errors.Is(err, errNotConnected) {
			return rc, err
		}
		r.debugf("inventory round on antenna %d: %v", ant+1, err)
	}
	return rc, err
}

// inventoryRound runs one inventory command on one antenna and delivers the
// tags it reports.
func (r *Reader) inventoryRound(p ReaderParameter, ant int) (int, error) {
	wait := r.timeout + time.Duration(p.ScanTime)*100*time.Millisecond
	var (
		tags []*ReadTag
		st   byte
	)
	err := r.transact(CmdInventory, inventoryRequest(p, ant), wait, func(f Frame) bool {
		st = f.Status
		tags = append(tags, decodeTags(f.Data, p, r.label)...)
		return f.Status == StatusMoreData
	})
	if err != nil {
		return StatusCommError, err
	}
	if cb := r.callback(); cb != nil {
		for _, tag := range tags {
			cb.TagCallback(tag)
		}
	}
	return int(st), nil
}

func inventoryRequest(p ReaderParameter, ant int) []byte {
	data := []byte{byte(p.QValue), byte(p.Session)}
	if p.IvtType == 1 {
		data = append(data, byte(p.TidPtr), byte(p.TidLen))
	}
	return append(data, byte(p.Target), 0x80|byte(ant), byte(p.ScanTime))
}

// antennaIndexes lists the zero-based antennas selected by mask.
func antennaIndexes(mask int) []int {
	var out []int
	for i := 0; i < 8; i++ {
		if mask&(1<<i) != 0 {
			out = append(out, i)
		}
	}
	if len(out) == 0 {
		out = []int{0}
	}
	return out
}

// decodeTags parses inventory reply data: antenna mask, record count, then
// records of length byte, tag bytes, RSSI and optional phase and frequency.
func decodeTags(data []byte, p ReaderParameter, dev string) []*ReadTag {
	if len(data) < 2 {
		return nil
	}
	ant := bits.TrailingZeros8(data[0]) + 1
	if data[0] == 0 {
		ant = 0
	}
	count := int(data[1])
	rest := data[2:]
	tags := make([]*ReadTag, 0, count)
	for i := 0; i < count && len(rest) > 0; i++ {
		flags := rest[0]
		n := int(flags & recordLenMask)
		need := 1 + n + 1
		if flags&recordExtended != 0 {
			need += extendedLen
		}
		if len(rest) < need {
			break
		}
		id := rest[1 : 1+n]
		tag := &ReadTag{
			RSSI:    int(rest[1+n]),
			AntID:   ant,
			DevName: dev,
		}
		if p.IvtType == 1 && p.TidLen > 0 && p.TidLen*2 <= len(id) {
			split := len(id) - p.TidLen*2
			tag.EpcID = upperHex(id[:split])
			tag.MemID = upperHex(id[split:])
		} else {
			tag.EpcID = upperHex(id)
		}
		if flags&recordExtended != 0 {
			ext := rest[2+n:]
			tag.PhaseBegin = int(ext[0])<<8 | int(ext[1])
			tag.PhaseEnd = int(ext[2])<<8 | int(ext[3])
			tag.FreqKhz = int(ext[4])<<16 | int(ext[5])<<8 | int(ext[6])
		}
		tags = append(tags, tag)
		rest = rest[need:]
	}
	return tags
}

func upperHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
