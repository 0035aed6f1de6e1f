package bento_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/bento"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
)

var layouts = []entities.Layout{entities.LayoutStartSmall, entities.LayoutStartLarge}

func reasonOf(t *testing.T, err error) bento.Reason {
	t.Helper()
	v, ok := bento.AsViolation(err)
	require.True(t, ok, "expected a violation, got %v", err)
	return v.Reason
}

func TestRowPairsAreMixedAndMirrored(t *testing.T) {
	for _, layout := range layouts {
		for _, pair := range entities.RowPairs {
			a, b := layout.SlotWidth(pair[0]), layout.SlotWidth(pair[1])
			assert.NotEqual(t, a, b, "layout %s pair %v", layout, pair)
			assert.NotEqual(t, a, layout.Mirror().SlotWidth(pair[0]))
			assert.NotEqual(t, b, layout.Mirror().SlotWidth(pair[1]))
		}
	}
}

func TestFits(t *testing.T) {
	tests := []struct {
		name   string
		typ    entities.WidgetType
		slot   int
		layout entities.Layout
		reason bento.Reason
	}{
		{"wide only in wide slot", entities.WidgetTypeTimeTracking, 1, entities.LayoutStartSmall, ""},
		{"wide only in small slot", entities.WidgetTypeRoomAvailability, 0, entities.LayoutStartSmall, bento.ReasonWideOnlyInSmallSlot},
		{"wide only mirrored", entities.WidgetTypeAnnouncements, 0, entities.LayoutStartLarge, ""},
		{"small only in small slot", entities.WidgetTypeBirthday, 3, entities.LayoutStartSmall, ""},
		{"small only in wide slot", entities.WidgetTypeBirthday, 3, entities.LayoutStartLarge, bento.ReasonSmallOnlyInWideSlot},
		{"unconstrained small", entities.WidgetTypeClockWeather, 0, entities.LayoutStartSmall, ""},
		{"unconstrained wide", entities.WidgetTypeImage, 2, entities.LayoutStartSmall, ""},
		{"negative slot", entities.WidgetTypeImage, -1, entities.LayoutStartSmall, bento.ReasonSlotOutOfRange},
		{"slot past grid", entities.WidgetTypeImage, 4, entities.LayoutStartSmall, bento.ReasonSlotOutOfRange},
		{"unknown type", entities.WidgetType("ticker"), 1, entities.LayoutStartSmall, bento.ReasonUnknownWidgetType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := bento.Fits(tt.typ, tt.slot, tt.layout)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.reason, reasonOf(t, err))
		})
	}
}

func TestNewGrid_RejectsBrokenState(t *testing.T) {
	_, err := bento.NewGrid([]bento.Placement{
		{WidgetID: "a", WidgetType: entities.WidgetTypeImage, Slot: 1},
		{WidgetID: "b", WidgetType: entities.WidgetTypeImage, Slot: 1},
	})
	assert.Equal(t, bento.ReasonSlotOccupied, reasonOf(t, err))

	_, err = bento.NewGrid([]bento.Placement{{WidgetID: "a", WidgetType: entities.WidgetTypeImage, Slot: 7}})
	assert.Equal(t, bento.ReasonSlotOutOfRange, reasonOf(t, err))
}

func TestCanPlace(t *testing.T) {
	grid, err := bento.NewGrid([]bento.Placement{
		{WidgetID: "clock", WidgetType: entities.WidgetTypeClockWeather, Slot: 0},
	})
	require.NoError(t, err)

	assert.NoError(t, grid.CanPlace(entities.WidgetTypeTimeTracking, 1, entities.LayoutStartSmall))
	assert.Equal(t, bento.ReasonSlotOccupied, reasonOf(t, grid.CanPlace(entities.WidgetTypeImage, 0, entities.LayoutStartSmall)))
	assert.Equal(t, bento.ReasonWideOnlyInSmallSlot, reasonOf(t, grid.CanPlace(entities.WidgetTypeTimeTracking, 3, entities.LayoutStartSmall)))
	assert.Equal(t, bento.ReasonSlotOutOfRange, reasonOf(t, grid.CanPlace(entities.WidgetTypeImage, 9, entities.LayoutStartSmall)))
}

func TestCanPlace_ScreenFull(t *testing.T) {
	grid, err := bento.NewGrid([]bento.Placement{
		{WidgetID: "a", WidgetType: entities.WidgetTypeClockWeather, Slot: 0},
		{WidgetID: "b", WidgetType: entities.WidgetTypeImage, Slot: 1},
		{WidgetID: "c", WidgetType: entities.WidgetTypeImage, Slot: 2},
		{WidgetID: "d", WidgetType: entities.WidgetTypeBirthday, Slot: 3},
	})
	require.NoError(t, err)

	for slot := 0; slot < entities.SlotCount; slot++ {
		assert.Equal(t, bento.ReasonScreenFull, reasonOf(t, grid.CanPlace(entities.WidgetTypeImage, slot, entities.LayoutStartSmall)))
	}
	for _, info := range grid.Describe(entities.LayoutStartSmall) {
		assert.NotEmpty(t, info.WidgetID)
	}
}

func TestDescribe(t *testing.T) {
	grid, err := bento.NewGrid([]bento.Placement{
		{WidgetID: "bday", WidgetType: entities.WidgetTypeBirthday, Slot: 0},
	})
	require.NoError(t, err)

	small := []entities.WidgetType{entities.WidgetTypeBirthday, entities.WidgetTypeClockWeather, entities.WidgetTypeImage}
	wide := []entities.WidgetType{
		entities.WidgetTypeRoomAvailability, entities.WidgetTypeClockWeather, entities.WidgetTypeAnnouncements,
		entities.WidgetTypeTimeTracking, entities.WidgetTypeImage,
	}

	slots := grid.Describe(entities.LayoutStartSmall)
	require.Len(t, slots, entities.SlotCount)

	assert.Equal(t, "bday", slots[0].WidgetID)
	assert.Equal(t, entities.SlotSmall, slots[0].Width)
	assert.Equal(t, 1, slots[0].ColumnSpan)
	assert.ElementsMatch(t, small, slots[0].Accepts)

	assert.Empty(t, slots[1].WidgetID)
	assert.Equal(t, entities.SlotWide, slots[1].Width)
	assert.Equal(t, 3, slots[1].ColumnSpan)
	assert.ElementsMatch(t, wide, slots[1].Accepts)

	mirrored := grid.Describe(entities.LayoutStartLarge)
	assert.Equal(t, 3, mirrored[0].ColumnSpan)
	assert.Equal(t, 1, mirrored[1].ColumnSpan)
	assert.ElementsMatch(t, wide, mirrored[0].Accepts)
}

func TestPlanReorder(t *testing.T) {
	grid, err := bento.NewGrid([]bento.Placement{
		{WidgetID: "birthday", WidgetType: entities.WidgetTypeBirthday, Slot: 0},
		{WidgetID: "toggl", WidgetType: entities.WidgetTypeTimeTracking, Slot: 1},
		{WidgetID: "image", WidgetType: entities.WidgetTypeImage, Slot: 2},
	})
	require.NoError(t, err)
	layout := entities.LayoutStartSmall

	t.Run("move into empty small slot", func(t *testing.T) {
		moves, err := bento.PlanReorder(grid, layout, "birthday", 0, 3)
		require.NoError(t, err)
		assert.Equal(t, []entities.SlotMove{{WidgetID: "birthday", From: 0, To: 3}}, moves)
	})

	t.Run("swap two wide slots", func(t *testing.T) {
		moves, err := bento.PlanReorder(grid, layout, "toggl", 1, 2)
		require.NoError(t, err)
		assert.Equal(t, []entities.SlotMove{
			{WidgetID: "toggl", From: 1, To: 2},
			{WidgetID: "image", From: 2, To: 1},
		}, moves)
	})

	t.Run("moving widget violates target", func(t *testing.T) {
		_, err := bento.PlanReorder(grid, layout, "toggl", 1, 3)
		assert.Equal(t, bento.ReasonWideOnlyInSmallSlot, reasonOf(t, err))
	})

	t.Run("displaced widget violates source", func(t *testing.T) {
		other, err := bento.NewGrid([]bento.Placement{
			{WidgetID: "clock", WidgetType: entities.WidgetTypeClockWeather, Slot: 0},
			{WidgetID: "toggl", WidgetType: entities.WidgetTypeTimeTracking, Slot: 1},
		})
		require.NoError(t, err)

		_, err = bento.PlanReorder(other, layout, "clock", 0, 1)
		assert.Equal(t, bento.ReasonWideOnlyInSmallSlot, reasonOf(t, err))
	})

	t.Run("same slot is a no-op", func(t *testing.T) {
		moves, err := bento.PlanReorder(grid, layout, "image", 2, 2)
		require.NoError(t, err)
		assert.Empty(t, moves)
	})

	t.Run("wrong source slot", func(t *testing.T) {
		_, err := bento.PlanReorder(grid, layout, "image", 3, 2)
		assert.ErrorIs(t, err, bento.ErrWidgetNotInSlot)
	})
}

func TestPlanLayoutChange_SwapsConflictingPairs(t *testing.T) {
	// start_small: 0 small, 1 wide, 2 wide, 3 small.
	grid, err := bento.NewGrid([]bento.Placement{
		{WidgetID: "birthday", WidgetType: entities.WidgetTypeBirthday, Slot: 0},
		{WidgetID: "rooms", WidgetType: entities.WidgetTypeRoomAvailability, Slot: 1},
		{WidgetID: "clock", WidgetType: entities.WidgetTypeClockWeather, Slot: 2},
		{WidgetID: "image", WidgetType: entities.WidgetTypeImage, Slot: 3},
	})
	require.NoError(t, err)

	moves, err := bento.PlanLayoutChange(grid, entities.LayoutStartSmall, entities.LayoutStartLarge)
	require.NoError(t, err)
	assert.Equal(t, []entities.SlotMove{
		{WidgetID: "birthday", From: 0, To: 1},
		{WidgetID: "rooms", From: 1, To: 0},
	}, moves)

	next, err := grid.Apply(moves)
	require.NoError(t, err)
	assert.NoError(t, next.Validate(entities.LayoutStartLarge))

	again, err := bento.PlanLayoutChange(next, entities.LayoutStartLarge, entities.LayoutStartLarge)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestPlanLayoutChange_MovesLoneWidgetToEmptySlot(t *testing.T) {
	grid, err := bento.NewGrid([]bento.Placement{
		{WidgetID: "toggl", WidgetType: entities.WidgetTypeTimeTracking, Slot: 2},
	})
	require.NoError(t, err)

	moves, err := bento.PlanLayoutChange(grid, entities.LayoutStartSmall, entities.LayoutStartLarge)
	require.NoError(t, err)
	assert.Equal(t, []entities.SlotMove{{WidgetID: "toggl", From: 2, To: 3}}, moves)
}

func TestPlanLayoutChange_RejectsInvalidStartingGrid(t *testing.T) {
	// Two wide-only widgets in one row can never both sit in a wide slot.
	grid, err := bento.NewGrid([]bento.Placement{
		{WidgetID: "toggl", WidgetType: entities.WidgetTypeTimeTracking, Slot: 0},
		{WidgetID: "rooms", WidgetType: entities.WidgetTypeRoomAvailability, Slot: 1},
	})
	require.NoError(t, err)

	_, err = bento.PlanLayoutChange(grid, entities.LayoutStartSmall, entities.LayoutStartLarge)
	assert.Equal(t, bento.ReasonUnresolvableLayout, reasonOf(t, err))
}

// Every valid grid stays valid across a layout switch, and switching to the
// layout already active plans nothing.
func TestPlanLayoutChange_AllValidGrids(t *testing.T) {
	palette := append([]entities.WidgetType{""}, entities.WidgetTypes...)
	checked := 0

	var walk func(slot int, placements []bento.Placement)
	walk = func(slot int, placements []bento.Placement) {
		if slot == entities.SlotCount {
			grid, err := bento.NewGrid(placements)
			require.NoError(t, err)
			for _, layout := range layouts {
				if grid.Validate(layout) != nil {
					continue
				}
				checked++
				moves, err := bento.PlanLayoutChange(grid, layout, layout.Mirror())
				require.NoError(t, err, "grid %v under %s", placements, layout)

				next, err := grid.Apply(moves)
				require.NoError(t, err)
				require.NoError(t, next.Validate(layout.Mirror()))
				assert.Equal(t, grid.Len(), next.Len())

				again, err := bento.PlanLayoutChange(next, layout.Mirror(), layout.Mirror())
				require.NoError(t, err)
				assert.Empty(t, again)
			}
			return
		}
		for _, typ := range palette {
			if typ == "" {
				walk(slot+1, placements)
				continue
			}
			p := bento.Placement{WidgetID: fmt.Sprintf("w%d", slot), WidgetType: typ, Slot: slot}
			walk(slot+1, append(append([]bento.Placement{}, placements...), p))
		}
	}
	walk(0, nil)

	assert.Greater(t, checked, 0)
}

func TestApply_RejectsStaleMoves(t *testing.T) {
	grid, err := bento.NewGrid([]bento.Placement{
		{WidgetID: "a", WidgetType: entities.WidgetTypeImage, Slot: 0},
		{WidgetID: "b", WidgetType: entities.WidgetTypeImage, Slot: 1},
	})
	require.NoError(t, err)

	_, err = grid.Apply([]entities.SlotMove{{WidgetID: "a", From: 0, To: 1}})
	assert.Equal(t, bento.ReasonSlotOccupied, reasonOf(t, err))

	_, err = grid.Apply([]entities.SlotMove{{WidgetID: "b", From: 0, To: 2}})
	assert.ErrorIs(t, err, bento.ErrWidgetNotInSlot)

	p, ok := grid.At(0)
	require.True(t, ok)
	assert.Equal(t, "a", p.WidgetID)
}
