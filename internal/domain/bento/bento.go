// Package bento decides which widgets may sit in which slots of the 2x2
// bento grid and plans the slot moves for reorders and layout switches.
// It holds no state and performs no I/O; callers persist the planned moves.
package bento

import (
	"errors"
	"fmt"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
)

// Reason is the machine readable cause of a rejected placement
type Reason string

const (
	ReasonSlotOutOfRange       Reason = "slot_out_of_range"
	ReasonWideOnlyInSmallSlot  Reason = "wide_only_in_small_slot"
	ReasonSmallOnlyInWideSlot  Reason = "small_only_in_wide_slot"
	ReasonSlotOccupied         Reason = "slot_occupied"
	ReasonScreenFull           Reason = "screen_full"
	ReasonUnresolvableLayout   Reason = "unresolvable_layout"
	ReasonUnknownWidgetType    Reason = "unknown_widget_type"
	ReasonDuplicateWidgetEntry Reason = "duplicate_widget"
)

// ErrWidgetNotInSlot is returned when a reorder names a widget that does not
// occupy the given source slot
var ErrWidgetNotInSlot = errors.New("widget is not in the given slot")

// Violation is a rejected placement
type Violation struct {
	Reason  Reason
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Reason, v.Message)
}

func violationf(reason Reason, format string, args ...interface{}) *Violation {
	return &Violation{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// AsViolation extracts a *Violation from err
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

func inRange(slot int) bool {
	return slot >= 0 && slot < entities.SlotCount
}

// Fits checks only the width rule of t against slot under layout
func Fits(t entities.WidgetType, slot int, layout entities.Layout) error {
	if !inRange(slot) {
		return violationf(ReasonSlotOutOfRange, "slot %d is outside 0-%d", slot, entities.SlotCount-1)
	}
	if !t.Valid() {
		return violationf(ReasonUnknownWidgetType, "unknown widget type %q", t)
	}

	width := layout.SlotWidth(slot)
	switch t.WidthConstraint() {
	case entities.WideOnly:
		if width != entities.SlotWide {
			return violationf(ReasonWideOnlyInSmallSlot, "%s needs a wide slot, slot %d is small under %s", t, slot, layout)
		}
	case entities.SmallOnly:
		if width != entities.SlotSmall {
			return violationf(ReasonSmallOnlyInWideSlot, "%s needs a small slot, slot %d is wide under %s", t, slot, layout)
		}
	}
	return nil
}

// Placement is a widget as seen by the engine
type Placement struct {
	WidgetID   string
	WidgetType entities.WidgetType
	Slot       int
}

// Grid is a snapshot of one screen's occupied slots
type Grid struct {
	slots [entities.SlotCount]*Placement
	count int
}

// NewGrid builds a grid from placements, rejecting out of range or doubly
// occupied slots
func NewGrid(placements []Placement) (*Grid, error) {
	g := &Grid{}
	seen := make(map[string]struct{}, len(placements))
	for i := range placements {
		p := placements[i]
		if !inRange(p.Slot) {
			return nil, violationf(ReasonSlotOutOfRange, "widget %s is at slot %d", p.WidgetID, p.Slot)
		}
		if g.slots[p.Slot] != nil {
			return nil, violationf(ReasonSlotOccupied, "slot %d holds both %s and %s", p.Slot, g.slots[p.Slot].WidgetID, p.WidgetID)
		}
		if _, dup := seen[p.WidgetID]; dup {
			return nil, violationf(ReasonDuplicateWidgetEntry, "widget %s is placed twice", p.WidgetID)
		}
		seen[p.WidgetID] = struct{}{}
		g.slots[p.Slot] = &p
		g.count++
	}
	return g, nil
}

// FromWidgets builds a grid from stored widgets using GridOrder as the slot
func FromWidgets(widgets []*entities.Widget) (*Grid, error) {
	placements := make([]Placement, 0, len(widgets))
	for _, w := range widgets {
		placements = append(placements, Placement{WidgetID: w.ID, WidgetType: w.WidgetType, Slot: w.GridOrder})
	}
	return NewGrid(placements)
}

// Len returns the number of placed widgets
func (g *Grid) Len() int {
	return g.count
}

// At returns the widget in slot, if any
func (g *Grid) At(slot int) (Placement, bool) {
	if !inRange(slot) || g.slots[slot] == nil {
		return Placement{}, false
	}
	return *g.slots[slot], true
}

// Find returns the placement of widgetID, if placed
func (g *Grid) Find(widgetID string) (Placement, bool) {
	for _, p := range g.slots {
		if p != nil && p.WidgetID == widgetID {
			return *p, true
		}
	}
	return Placement{}, false
}

// Describe lists every slot of g under layout with its occupant and the
// widget types that may be dropped there
func (g *Grid) Describe(layout entities.Layout) []entities.SlotInfo {
	out := make([]entities.SlotInfo, 0, entities.SlotCount)
	for slot := 0; slot < entities.SlotCount; slot++ {
		info := entities.SlotInfo{
			Slot:       slot,
			Width:      layout.SlotWidth(slot),
			ColumnSpan: layout.ColumnSpan(slot),
			Accepts:    []entities.WidgetType{},
		}
		if p := g.slots[slot]; p != nil {
			info.WidgetID = p.WidgetID
		}
		for _, t := range entities.WidgetTypes {
			if Fits(t, slot, layout) == nil {
				info.Accepts = append(info.Accepts, t)
			}
		}
		out = append(out, info)
	}
	return out
}

// CanPlace reports why a new widget of type t cannot be dropped into slot,
// or nil when it can
func (g *Grid) CanPlace(t entities.WidgetType, slot int, layout entities.Layout) error {
	if !inRange(slot) {
		return violationf(ReasonSlotOutOfRange, "slot %d is outside 0-%d", slot, entities.SlotCount-1)
	}
	if g.count >= entities.SlotCount {
		return violationf(ReasonScreenFull, "screen already holds %d widgets", g.count)
	}
	if occupant := g.slots[slot]; occupant != nil {
		return violationf(ReasonSlotOccupied, "slot %d is taken by %s", slot, occupant.WidgetID)
	}
	return Fits(t, slot, layout)
}

// Validate checks every placement against layout
func (g *Grid) Validate(layout entities.Layout) error {
	for _, p := range g.slots {
		if p == nil {
			continue
		}
		if err := Fits(p.WidgetType, p.Slot, layout); err != nil {
			return err
		}
	}
	return nil
}

// Apply returns a copy of g with moves applied. Moves are applied as one
// simultaneous reassignment, so swaps need no temporary slot.
func (g *Grid) Apply(moves []entities.SlotMove) (*Grid, error) {
	next := *g
	for _, m := range moves {
		if !inRange(m.From) || !inRange(m.To) {
			return nil, violationf(ReasonSlotOutOfRange, "move %d->%d leaves the grid", m.From, m.To)
		}
		p := g.slots[m.From]
		if p == nil || p.WidgetID != m.WidgetID {
			return nil, fmt.Errorf("%w: %s at slot %d", ErrWidgetNotInSlot, m.WidgetID, m.From)
		}
		next.slots[m.From] = nil
	}
	for _, m := range moves {
		if next.slots[m.To] != nil {
			return nil, violationf(ReasonSlotOccupied, "slot %d is taken by %s", m.To, next.slots[m.To].WidgetID)
		}
		moved := *g.slots[m.From]
		moved.Slot = m.To
		next.slots[m.To] = &moved
	}
	return &next, nil
}

// PlanReorder plans moving widgetID from one slot to another: a move into an
// empty slot, or a swap with the occupant. Both widgets must satisfy their
// width rule in their new slot. Moving a widget onto itself plans nothing.
func PlanReorder(g *Grid, layout entities.Layout, widgetID string, from, to int) ([]entities.SlotMove, error) {
	if !inRange(from) || !inRange(to) {
		return nil, violationf(ReasonSlotOutOfRange, "reorder %d->%d leaves the grid", from, to)
	}
	moving, ok := g.At(from)
	if !ok || moving.WidgetID != widgetID {
		return nil, fmt.Errorf("%w: %s at slot %d", ErrWidgetNotInSlot, widgetID, from)
	}
	if from == to {
		return nil, nil
	}
	if err := Fits(moving.WidgetType, to, layout); err != nil {
		return nil, err
	}

	moves := []entities.SlotMove{{WidgetID: moving.WidgetID, From: from, To: to}}
	if displaced, ok := g.At(to); ok {
		if err := Fits(displaced.WidgetType, from, layout); err != nil {
			return nil, err
		}
		moves = append(moves, entities.SlotMove{WidgetID: displaced.WidgetID, From: to, To: from})
	}
	return moves, nil
}

// PlanLayoutChange plans the swaps that keep g valid when the screen switches
// from current to next. Within each row pair the two slots swap whenever
// either occupant would break its width rule under next. The result is
// checked as a whole; a grid that cannot be reconciled is rejected.
func PlanLayoutChange(g *Grid, current, next entities.Layout) ([]entities.SlotMove, error) {
	if current == next {
		return nil, nil
	}

	var moves []entities.SlotMove
	for _, pair := range entities.RowPairs {
		a, aok := g.At(pair[0])
		b, bok := g.At(pair[1])
		conflict := (aok && Fits(a.WidgetType, a.Slot, next) != nil) ||
			(bok && Fits(b.WidgetType, b.Slot, next) != nil)
		if !conflict {
			continue
		}
		if aok {
			moves = append(moves, entities.SlotMove{WidgetID: a.WidgetID, From: pair[0], To: pair[1]})
		}
		if bok {
			moves = append(moves, entities.SlotMove{WidgetID: b.WidgetID, From: pair[1], To: pair[0]})
		}
	}

	result, err := g.Apply(moves)
	if err != nil {
		return nil, err
	}
	if err := result.Validate(next); err != nil {
		return nil, violationf(ReasonUnresolvableLayout, "switching to %s leaves the grid invalid: %v", next, err)
	}
	return moves, nil
}
