package availability

import "sync"

// Picker holds the slots presented for one room and day plus the current selection.
// Selecting an unknown or unavailable slot leaves the selection untouched.
type Picker struct {
	mu       sync.Mutex
	slots    []TimeSlot
	index    map[string]int
	selected string
}

func NewPicker(slots []TimeSlot) *Picker {
	p := &Picker{}
	p.Reset(slots)
	return p
}

// Reset replaces the presented slots. A selection that became unavailable is dropped.
func (p *Picker) Reset(slots []TimeSlot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.slots = append([]TimeSlot(nil), slots...)
	p.index = make(map[string]int, len(slots))
	for i, s := range p.slots {
		p.index[s.Time] = i
	}
	if i, ok := p.index[p.selected]; !ok || !p.slots[i].Available {
		p.selected = ""
	}
}

func (p *Picker) Select(t string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i, ok := p.index[t]
	if !ok || !p.slots[i].Available {
		return false
	}
	p.selected = t
	return true
}

func (p *Picker) Selected() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected, p.selected != ""
}

func (p *Picker) Clear() {
	p.mu.Lock()
	p.selected = ""
	p.mu.Unlock()
}

func (p *Picker) Slots() []TimeSlot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TimeSlot(nil), p.slots...)
}
