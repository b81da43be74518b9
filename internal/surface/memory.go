package surface

import "sync"

type slotState struct {
	text     string
	class    string
	value    string
	disabled bool
	rows     []Row
}

// Memory keeps the surface state in process. Controls start enabled.
type Memory struct {
	mu      sync.RWMutex
	slots   map[Slot]*slotState
	version uint64
}

func NewMemory() *Memory {
	return &Memory{slots: make(map[Slot]*slotState)}
}

func (m *Memory) slot(id Slot) *slotState {
	s, ok := m.slots[id]
	if !ok {
		s = &slotState{}
		m.slots[id] = s
	}
	return s
}

func (m *Memory) SetText(id Slot, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot(id).text = text
	m.version++
}

func (m *Memory) SetClass(id Slot, class string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot(id).class = class
	m.version++
}

func (m *Memory) SetValue(id Slot, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot(id).value = value
	m.version++
}

func (m *Memory) SetEnabled(id Slot, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot(id).disabled = !enabled
	m.version++
}

func (m *Memory) ReplaceList(id Slot, rows []Row) {
	cp := make([]Row, len(rows))
	copy(cp, rows)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.slot(id).rows = cp
	m.version++
}

func (m *Memory) PrependRow(id Slot, row Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.slot(id)
	s.rows = append([]Row{row}, s.rows...)
	m.version++
}

func (m *Memory) Text(id Slot) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.slots[id]; ok {
		return s.text
	}
	return ""
}

func (m *Memory) Class(id Slot) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.slots[id]; ok {
		return s.class
	}
	return ""
}

func (m *Memory) Value(id Slot) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.slots[id]; ok {
		return s.value
	}
	return ""
}

func (m *Memory) Enabled(id Slot) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.slots[id]; ok {
		return !s.disabled
	}
	return true
}

// Rows returns a copy of the list held by id.
func (m *Memory) Rows(id Slot) []Row {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.slots[id]
	if !ok {
		return nil
	}
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Len is the number of rows held by id.
func (m *Memory) Len(id Slot) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.slots[id]; ok {
		return len(s.rows)
	}
	return 0
}

// Version increases on every mutation; views use it to skip redundant redraws.
func (m *Memory) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}
