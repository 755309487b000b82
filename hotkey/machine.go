package hotkey

import "time"

// State of the press/hold/release tracking.
type State int

const (
	// Idle: the required modifier set is not satisfied.
	Idle State = iota
	// ModifiersHeld: every required modifier is held on some device.
	ModifiersHeld
	// Armed: modifiers satisfied and the target key is down; audio capture
	// runs while the machine stays here.
	Armed
	// Committing: momentary state on a valid release, observable only as
	// the SessionCommit signal.
	Committing
)

// SignalKind classifies a session-lifecycle signal.
type SignalKind int

const (
	SessionStart SignalKind = iota
	SessionAbort
	SessionCommit
)

// AbortReason explains a SessionAbort.
type AbortReason string

const (
	ReasonModifierReleased AbortReason = "modifier released early"
	ReasonTooShort         AbortReason = "too short"
)

// Signal is one session-lifecycle transition emitted by the machine.
type Signal struct {
	Kind   SignalKind
	Reason AbortReason   // set for SessionAbort
	Held   time.Duration // set for SessionCommit
}

// Machine consumes the merged key-event stream and emits session signals.
// Modifier state is tracked per device and unioned: a modifier stays held
// until no device reports it anymore. All state lives in the run goroutine;
// other components interact only through the two channels.
type Machine struct {
	modifierGroups [][]uint16
	targetKey      uint16
	minDwell       time.Duration

	events  <-chan KeyEvent
	signals chan Signal

	held    map[string]map[uint16]bool
	state   State
	armedAt time.Time

	now func() time.Time
}

// NewMachine builds a machine for the given combination. Each modifier
// group is satisfied by any one of its codes (left or right variant).
// The machine starts consuming events immediately and closes its signal
// channel when the event channel closes.
func NewMachine(modifierGroups [][]uint16, targetKey uint16, minDwell time.Duration, events <-chan KeyEvent) *Machine {
	m := &Machine{
		modifierGroups: modifierGroups,
		targetKey:      targetKey,
		minDwell:       minDwell,
		events:         events,
		signals:        make(chan Signal, 4),
		held:           make(map[string]map[uint16]bool),
		now:            time.Now,
	}
	go m.run()
	return m
}

// Signals returns the session-lifecycle signal channel.
func (m *Machine) Signals() <-chan Signal { return m.signals }

func (m *Machine) run() {
	defer close(m.signals)
	for ev := range m.events {
		m.handle(ev)
	}
}

func (m *Machine) handle(ev KeyEvent) {
	if ev.Gone {
		m.deviceGone(ev.Device)
		return
	}

	m.track(ev)

	switch m.state {
	case Idle:
		if m.modifiersSatisfied() {
			m.state = ModifiersHeld
		}
	case ModifiersHeld:
		if !m.modifiersSatisfied() {
			m.state = Idle
			return
		}
		if ev.Code == m.targetKey && ev.Value == ValuePress {
			m.arm()
		}
	case Armed:
		if ev.Code == m.targetKey && ev.Value == ValueRepeat {
			return // key repeat while armed is noise
		}
		if !m.modifiersSatisfied() {
			m.abort(ReasonModifierReleased)
			return
		}
		if ev.Code == m.targetKey && ev.Value == ValueRelease {
			m.commit()
		}
	}
}

// deviceGone treats a lost device as releasing everything it reported.
func (m *Machine) deviceGone(device string) {
	reported := m.held[device]
	delete(m.held, device)
	if len(reported) == 0 {
		return
	}

	switch m.state {
	case ModifiersHeld:
		if !m.modifiersSatisfied() {
			m.state = Idle
		}
	case Armed:
		if !m.modifiersSatisfied() {
			m.abort(ReasonModifierReleased)
		} else if !m.keyDown(m.targetKey) {
			m.commit()
		}
	}
}

func (m *Machine) track(ev KeyEvent) {
	switch ev.Value {
	case ValuePress:
		codes := m.held[ev.Device]
		if codes == nil {
			codes = make(map[uint16]bool)
			m.held[ev.Device] = codes
		}
		codes[ev.Code] = true
	case ValueRelease:
		delete(m.held[ev.Device], ev.Code)
	}
}

func (m *Machine) arm() {
	m.state = Armed
	m.armedAt = m.now()
	m.signals <- Signal{Kind: SessionStart}
}

// commit fires on target-key release while armed. Releases inside the
// minimum dwell window are taps, not dictation.
func (m *Machine) commit() {
	held := m.now().Sub(m.armedAt)
	m.settle()
	if held < m.minDwell {
		m.signals <- Signal{Kind: SessionAbort, Reason: ReasonTooShort}
		return
	}
	m.signals <- Signal{Kind: SessionCommit, Held: held}
}

func (m *Machine) abort(reason AbortReason) {
	m.settle()
	m.signals <- Signal{Kind: SessionAbort, Reason: reason}
}

func (m *Machine) settle() {
	if m.modifiersSatisfied() {
		m.state = ModifiersHeld
	} else {
		m.state = Idle
	}
}

// modifiersSatisfied reports whether every modifier group has at least one
// code held on at least one device.
func (m *Machine) modifiersSatisfied() bool {
	for _, group := range m.modifierGroups {
		satisfied := false
		for _, code := range group {
			if m.keyDown(code) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

func (m *Machine) keyDown(code uint16) bool {
	for _, codes := range m.held {
		if codes[code] {
			return true
		}
	}
	return false
}
