package diag

import (
	"sort"
)

// Bag accumulates diagnostics in insertion order.
type Bag struct {
	items []Diagnostic
}

// NewBag creates an empty bag with room for capHint diagnostics.
func NewBag(capHint int) *Bag {
	return &Bag{items: make([]Diagnostic, 0, capHint)}
}

// Add appends a diagnostic.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Merge appends all diagnostics from another bag, preserving their order.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns a read-only view of the diagnostics. Do not modify.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// HasErrors reports whether any diagnostic has Severity >= Error.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any diagnostic has Severity >= Warning.
func (b *Bag) HasWarnings() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevWarning {
			return true
		}
	}
	return false
}

// Max returns the highest severity present, or SevInfo for an empty bag.
func (b *Bag) Max() Severity {
	maxSev := SevInfo
	for i := range b.items {
		if b.items[i].Severity > maxSev {
			maxSev = b.items[i].Severity
		}
	}
	return maxSev
}

// Filter returns the diagnostics at or above the given severity,
// in insertion order.
func (b *Bag) Filter(minSev Severity) []Diagnostic {
	out := make([]Diagnostic, 0, len(b.items))
	for _, d := range b.items {
		if d.Severity >= minSev {
			out = append(out, d)
		}
	}
	return out
}

// Sort orders diagnostics by file, span, severity (desc), code for stable
// output. Emission order is already deterministic; Sort is for rendering
// several merged bags.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code.ID() < dj.Code.ID()
	})
}
