package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rfidenter/uhfbridge/pkg/dynamic"
	"github.com/rfidenter/uhfbridge/pkg/journal/sqlite"
	"github.com/rfidenter/uhfbridge/pkg/uhf"
	"github.com/rfidenter/uhfbridge/pkg/wire"
)

const journalTimeout = 2 * time.Second

// eventBridge turns reader notifications into events. It runs on the
// reader's goroutine and never touches the session.
type eventBridge struct {
	b         *Bridge
	sessionID string
}

var _ uhf.TagCallback = (*eventBridge)(nil)

func newEventBridge(b *Bridge, sessionID string) *eventBridge {
	return &eventBridge{b: b, sessionID: sessionID}
}

// Tag members read from a notification, with their wire kinds.
var (
	tagTextFields = []string{"epcId", "memId", "devName"}
	tagIntFields  = []string{"rssi", "antId", "phaseBegin", "phaseEnd", "freqKhz"}
)

func (e *eventBridge) TagCallback(tag *uhf.ReadTag) {
	var payload map[string]any
	var err error
	if tag == nil {
		err = errors.New("empty tag")
	} else {
		payload, err = readTag(tag)
	}
	if err != nil {
		e.b.event(wire.EventLog, map[string]any{"level": "warn", "message": "Tag parse error: " + err.Error()})
		return
	}
	e.b.metrics.Tags.Inc(1)
	e.b.event(wire.EventTag, payload)
	e.record(payload)
}

func (e *eventBridge) ReadOver() {
	e.b.event(wire.EventReadOver, map[string]any{"ok": true})
}

func (e *eventBridge) TagCallbackFailed(rc int) {
	e.b.event(wire.EventTagFail, map[string]any{"rc": rc})
}

// readTag reads every tag member through dynamic lookup so that any
// notification type with matching fields or accessors works.
func readTag(tag any) (payload map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload, err = nil, fmt.Errorf("%v", r)
		}
	}()
	payload = make(map[string]any, len(tagTextFields)+len(tagIntFields))
	for _, name := range tagTextFields {
		v, err := dynamic.LookupField(tag, name)
		if err != nil {
			return nil, err
		}
		payload[name] = dynamic.Text(v)
	}
	for _, name := range tagIntFields {
		v, err := dynamic.LookupField(tag, name)
		if err != nil {
			return nil, err
		}
		payload[name] = dynamic.Int(v)
	}
	return payload, nil
}

func (e *eventBridge) record(payload map[string]any) {
	j := e.b.journal
	if j == nil {
		return
	}
	entry := sqlite.Entry{
		SessionID:  e.sessionID,
		EPC:        payload["epcId"].(string),
		MemID:      payload["memId"].(string),
		DevName:    payload["devName"].(string),
		RSSI:       payload["rssi"].(int),
		Antenna:    payload["antId"].(int),
		PhaseBegin: payload["phaseBegin"].(int),
		PhaseEnd:   payload["phaseEnd"].(int),
		FreqKhz:    payload["freqKhz"].(int),
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := j.Append(ctx, entry); err != nil {
		e.b.logf("journal: %v", err)
	}
}
