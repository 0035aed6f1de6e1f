package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog/log"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/repositories"
	apperrors "github.com/moonlysoftware/dashboard-intro-week/pkg/errors"
)

var widgetColumns = []interface{}{
	"id", "screen_id", "widget_type", "config", "grid_col_span",
	"grid_row_span", "grid_order", "created_at", "updated_at",
}

// WidgetAdapter implements WidgetRepository
type WidgetAdapter struct {
	db *sql.DB
	qb goqu.DialectWrapper
}

var _ repositories.WidgetRepository = (*WidgetAdapter)(nil)

// NewWidgetAdapter creates a new widget adapter
func NewWidgetAdapter(db *sql.DB, dialect string) *WidgetAdapter {
	return &WidgetAdapter{db: db, qb: builder(dialect)}
}

// Create creates a new widget
func (a *WidgetAdapter) Create(ctx context.Context, widget *entities.Widget) error {
	config, err := entities.EncodeWidgetConfig(widget.Config)
	if err != nil {
		return apperrors.NewInternalError("failed to encode widget config", err)
	}

	record := goqu.Record{
		"id":            widget.ID,
		"screen_id":     widget.ScreenID,
		"widget_type":   string(widget.WidgetType),
		"config":        string(config),
		"grid_col_span": widget.GridColSpan,
		"grid_row_span": widget.GridRowSpan,
		"grid_order":    widget.GridOrder,
		"created_at":    widget.CreatedAt,
		"updated_at":    widget.UpdatedAt,
	}

	query, args, err := a.qb.Insert(widgetsTable).Prepared(true).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create widget", err)
	}
	return nil
}

// GetByID retrieves a widget by ID
func (a *WidgetAdapter) GetByID(ctx context.Context, id string) (*entities.Widget, error) {
	query, args, err := a.qb.From(widgetsTable).Prepared(true).
		Select(widgetColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	widget, err := scanWidget(a.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("widget with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get widget", err)
	}
	return widget, nil
}

// ListByScreen returns a screen's widgets ordered by slot
func (a *WidgetAdapter) ListByScreen(ctx context.Context, screenID string) ([]*entities.Widget, error) {
	query, args, err := a.qb.From(widgetsTable).Prepared(true).
		Select(widgetColumns...).
		Where(goqu.Ex{"screen_id": screenID}).
		Order(goqu.I("grid_order").Asc(), goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list widgets", err)
	}
	defer rows.Close()

	widgets := []*entities.Widget{}
	for rows.Next() {
		widget, err := scanWidget(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan widget", err)
		}
		widgets = append(widgets, widget)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate widgets", err)
	}
	return widgets, nil
}

// Update stores a widget's config and spans
func (a *WidgetAdapter) Update(ctx context.Context, widget *entities.Widget) error {
	config, err := entities.EncodeWidgetConfig(widget.Config)
	if err != nil {
		return apperrors.NewInternalError("failed to encode widget config", err)
	}
	widget.UpdatedAt = time.Now()

	query, args, err := a.qb.Update(widgetsTable).Prepared(true).
		Set(goqu.Record{
			"config":        string(config),
			"grid_col_span": widget.GridColSpan,
			"grid_row_span": widget.GridRowSpan,
			"updated_at":    widget.UpdatedAt,
		}).
		Where(goqu.Ex{"id": widget.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update widget", err)
	}
	return expectOneRow(result, fmt.Sprintf("widget with id %s not found", widget.ID))
}

// ApplyPlacement writes a layout switch and its slot moves atomically. Each
// move is guarded by the widget's expected source slot, so a concurrent
// writer makes the whole change roll back instead of half-applying.
func (a *WidgetAdapter) ApplyPlacement(ctx context.Context, change entities.PlacementChange) error {
	if change.Empty() {
		return nil
	}
	now := time.Now()

	type statement struct {
		query string
		args  []interface{}
		what  string
	}
	var statements []statement

	if change.Layout != nil {
		query, args, err := a.qb.Update(screensTable).Prepared(true).
			Set(goqu.Record{"layout": string(*change.Layout), "updated_at": now}).
			Where(goqu.Ex{"id": change.ScreenID}).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build layout update", err)
		}
		statements = append(statements, statement{query, args, fmt.Sprintf("screen %s", change.ScreenID)})
	}

	for _, move := range change.Moves {
		query, args, err := a.qb.Update(widgetsTable).Prepared(true).
			Set(goqu.Record{"grid_order": move.To, "updated_at": now}).
			Where(goqu.Ex{
				"id":         move.WidgetID,
				"screen_id":  change.ScreenID,
				"grid_order": move.From,
			}).
			ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build slot update", err)
		}
		statements = append(statements, statement{query, args, fmt.Sprintf("widget %s at slot %d", move.WidgetID, move.From)})
	}

	return withTx(ctx, a.db, func(tx *sql.Tx) error {
		for _, st := range statements {
			result, err := tx.ExecContext(ctx, st.query, st.args...)
			if err != nil {
				return apperrors.NewInternalError("failed to apply placement", err)
			}
			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return apperrors.NewInternalError("failed to get rows affected", err)
			}
			if rowsAffected != 1 {
				return apperrors.NewConflictError(fmt.Sprintf("placement changed concurrently: %s", st.what))
			}
		}
		return nil
	})
}

// Delete removes a widget and clears it as its screen's featured widget
func (a *WidgetAdapter) Delete(ctx context.Context, id string) error {
	clearFeatured, cargs, err := a.qb.Update(screensTable).Prepared(true).
		Set(goqu.Record{"featured_widget_id": nil, "updated_at": time.Now()}).
		Where(goqu.Ex{"featured_widget_id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build screen update", err)
	}
	deleteWidget, dargs, err := a.qb.Delete(widgetsTable).Prepared(true).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	return withTx(ctx, a.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, clearFeatured, cargs...); err != nil {
			return apperrors.NewInternalError("failed to clear featured widget", err)
		}
		result, err := tx.ExecContext(ctx, deleteWidget, dargs...)
		if err != nil {
			return apperrors.NewInternalError("failed to delete widget", err)
		}
		return expectOneRow(result, fmt.Sprintf("widget with id %s not found", id))
	})
}

func expectOneRow(result sql.Result, notFound string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(notFound)
	}
	return nil
}

func scanWidget(row rowScanner) (*entities.Widget, error) {
	w := &entities.Widget{}
	var widgetType, config string

	err := row.Scan(
		&w.ID,
		&w.ScreenID,
		&widgetType,
		&config,
		&w.GridColSpan,
		&w.GridRowSpan,
		&w.GridOrder,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.WidgetType = entities.WidgetType(widgetType)
	w.Config, err = entities.DecodeWidgetConfig(w.WidgetType, []byte(config))
	if err != nil {
		// A row written by an older schema must not take the kiosk down.
		log.Warn().Err(err).Str("widget_id", w.ID).Msg("Stored widget config is invalid, using defaults")
		w.Config, _ = entities.DefaultWidgetConfig(w.WidgetType)
	}
	return w, nil
}
