// Package memory keeps screens and widgets in process memory. It backs
// STORAGE_DRIVER=memory and gives tests a store with the same transactional
// guarantees as the SQL adapters.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/repositories"
	apperrors "github.com/moonlysoftware/dashboard-intro-week/pkg/errors"
)

// Store holds all rows behind one lock
type Store struct {
	mu       sync.RWMutex
	screens  map[string]entities.Screen
	widgets  map[string]entities.Widget
	settings map[entities.WidgetType][]byte
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		screens:  make(map[string]entities.Screen),
		widgets:  make(map[string]entities.Widget),
		settings: make(map[entities.WidgetType][]byte),
	}
}

// Screens returns the store as a ScreenRepository
func (s *Store) Screens() repositories.ScreenRepository { return screenRepo{s} }

// Widgets returns the store as a WidgetRepository
func (s *Store) Widgets() repositories.WidgetRepository { return widgetRepo{s} }

// Settings returns the store as a WidgetSettingsRepository
func (s *Store) Settings() repositories.WidgetSettingsRepository { return settingsRepo{s} }

type screenRepo struct{ s *Store }

func (r screenRepo) Create(ctx context.Context, screen *entities.Screen) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.screens[screen.ID]; ok {
		return apperrors.NewConflictError(fmt.Sprintf("screen with id %s already exists", screen.ID))
	}
	r.s.screens[screen.ID] = cloneScreen(*screen)
	return nil
}

func (r screenRepo) GetByID(ctx context.Context, id string) (*entities.Screen, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	screen, ok := r.s.screens[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("screen with id %s not found", id))
	}
	out := cloneScreen(screen)
	return &out, nil
}

func (r screenRepo) List(ctx context.Context) ([]*entities.Screen, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entities.Screen, 0, len(r.s.screens))
	for _, screen := range r.s.screens {
		c := cloneScreen(screen)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r screenRepo) Update(ctx context.Context, screen *entities.Screen) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.screens[screen.ID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("screen with id %s not found", screen.ID))
	}
	screen.UpdatedAt = time.Now()
	screen.CreatedAt = existing.CreatedAt
	r.s.screens[screen.ID] = cloneScreen(*screen)
	return nil
}

func (r screenRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.screens[id]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("screen with id %s not found", id))
	}
	for wid, w := range r.s.widgets {
		if w.ScreenID == id {
			delete(r.s.widgets, wid)
		}
	}
	delete(r.s.screens, id)
	return nil
}

type widgetRepo struct{ s *Store }

func (r widgetRepo) Create(ctx context.Context, widget *entities.Widget) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.screens[widget.ScreenID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("screen with id %s not found", widget.ScreenID))
	}
	if _, ok := r.s.widgets[widget.ID]; ok {
		return apperrors.NewConflictError(fmt.Sprintf("widget with id %s already exists", widget.ID))
	}
	r.s.widgets[widget.ID] = *widget
	return nil
}

func (r widgetRepo) GetByID(ctx context.Context, id string) (*entities.Widget, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.widgets[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("widget with id %s not found", id))
	}
	return &w, nil
}

func (r widgetRepo) ListByScreen(ctx context.Context, screenID string) ([]*entities.Widget, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*entities.Widget{}
	for _, w := range r.s.widgets {
		if w.ScreenID == screenID {
			c := w
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GridOrder == out[j].GridOrder {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].GridOrder < out[j].GridOrder
	})
	return out, nil
}

func (r widgetRepo) Update(ctx context.Context, widget *entities.Widget) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.widgets[widget.ID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("widget with id %s not found", widget.ID))
	}
	widget.UpdatedAt = time.Now()
	existing.Config = widget.Config
	existing.GridColSpan = widget.GridColSpan
	existing.GridRowSpan = widget.GridRowSpan
	existing.UpdatedAt = widget.UpdatedAt
	r.s.widgets[widget.ID] = existing
	return nil
}

// ApplyPlacement checks every guard before touching any row, so a rejected
// change leaves the store exactly as it was
func (r widgetRepo) ApplyPlacement(ctx context.Context, change entities.PlacementChange) error {
	if change.Empty() {
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	screen, ok := r.s.screens[change.ScreenID]
	if !ok {
		return apperrors.NewConflictError(fmt.Sprintf("placement changed concurrently: screen %s", change.ScreenID))
	}
	for _, m := range change.Moves {
		w, ok := r.s.widgets[m.WidgetID]
		if !ok || w.ScreenID != change.ScreenID || w.GridOrder != m.From {
			return apperrors.NewConflictError(fmt.Sprintf("placement changed concurrently: widget %s at slot %d", m.WidgetID, m.From))
		}
	}

	now := time.Now()
	if change.Layout != nil {
		screen.Layout = *change.Layout
		screen.UpdatedAt = now
		r.s.screens[screen.ID] = screen
	}
	for _, m := range change.Moves {
		w := r.s.widgets[m.WidgetID]
		w.GridOrder = m.To
		w.UpdatedAt = now
		r.s.widgets[m.WidgetID] = w
	}
	return nil
}

func (r widgetRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.widgets[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("widget with id %s not found", id))
	}
	if screen, ok := r.s.screens[w.ScreenID]; ok && screen.FeaturedWidgetID != nil && *screen.FeaturedWidgetID == id {
		screen.FeaturedWidgetID = nil
		screen.UpdatedAt = time.Now()
		r.s.screens[screen.ID] = screen
	}
	delete(r.s.widgets, id)
	return nil
}

type settingsRepo struct{ s *Store }

func (r settingsRepo) Get(ctx context.Context, t entities.WidgetType) ([]byte, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	raw, ok := r.s.settings[t]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), raw...), nil
}

func (r settingsRepo) Put(ctx context.Context, t entities.WidgetType, raw []byte) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.settings[t] = append([]byte(nil), raw...)
	return nil
}

func cloneScreen(s entities.Screen) entities.Screen {
	if s.FeaturedWidgetID != nil {
		id := *s.FeaturedWidgetID
		s.FeaturedWidgetID = &id
	}
	return s
}
