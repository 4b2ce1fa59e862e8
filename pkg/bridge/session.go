package bridge

// Session is the bridge's view of the current reader. It is only touched by
// the request loop.
type Session struct {
	handle            any
	inventoryActive   bool
	lastConnectArgs   map[string]any
	callbackInstalled bool
	sessionID         string
}

// Connected reports whether a reader handle is held.
func (s *Session) Connected() bool { return s.handle != nil }

// InventoryActive reports whether inventory was started and not stopped.
func (s *Session) InventoryActive() bool { return s.inventoryActive }

// ID is the current session id, empty when disconnected.
func (s *Session) ID() string { return s.sessionID }

func (s *Session) reset() {
	*s = Session{}
}

func (s *Session) status() map[string]any {
	var last any
	if s.lastConnectArgs != nil {
		last = s.lastConnectArgs
	}
	var id any
	if s.sessionID != "" {
		id = s.sessionID
	}
	return map[string]any{
		"connected":        s.handle != nil,
		"inventoryStarted": s.inventoryActive,
		"lastConnectArgs":  last,
		"sessionId":        id,
	}
}
