package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/repositories"
	apperrors "github.com/moonlysoftware/dashboard-intro-week/pkg/errors"
)

var screenColumns = []interface{}{
	"id", "name", "description", "refresh_interval", "layout",
	"view_mode", "featured_widget_id", "created_at", "updated_at",
}

// ScreenAdapter implements ScreenRepository
type ScreenAdapter struct {
	db *sql.DB
	qb goqu.DialectWrapper
}

var _ repositories.ScreenRepository = (*ScreenAdapter)(nil)

// NewScreenAdapter creates a new screen adapter
func NewScreenAdapter(db *sql.DB, dialect string) *ScreenAdapter {
	return &ScreenAdapter{db: db, qb: builder(dialect)}
}

// Create creates a new screen
func (a *ScreenAdapter) Create(ctx context.Context, screen *entities.Screen) error {
	record := goqu.Record{
		"id":                 screen.ID,
		"name":               screen.Name,
		"description":        screen.Description,
		"refresh_interval":   screen.RefreshInterval,
		"layout":             string(screen.Layout),
		"view_mode":          string(screen.ViewMode),
		"featured_widget_id": nullString(screen.FeaturedWidgetID),
		"created_at":         screen.CreatedAt,
		"updated_at":         screen.UpdatedAt,
	}

	query, args, err := a.qb.Insert(screensTable).Prepared(true).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create screen", err)
	}
	return nil
}

// GetByID retrieves a screen by ID
func (a *ScreenAdapter) GetByID(ctx context.Context, id string) (*entities.Screen, error) {
	query, args, err := a.qb.From(screensTable).Prepared(true).
		Select(screenColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	screen, err := scanScreen(a.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("screen with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get screen", err)
	}
	return screen, nil
}

// List returns every screen, oldest first
func (a *ScreenAdapter) List(ctx context.Context) ([]*entities.Screen, error) {
	query, args, err := a.qb.From(screensTable).Prepared(true).
		Select(screenColumns...).
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list screens", err)
	}
	defer rows.Close()

	screens := []*entities.Screen{}
	for rows.Next() {
		screen, err := scanScreen(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan screen", err)
		}
		screens = append(screens, screen)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate screens", err)
	}
	return screens, nil
}

// Update stores a screen's editable fields
func (a *ScreenAdapter) Update(ctx context.Context, screen *entities.Screen) error {
	screen.UpdatedAt = time.Now()

	record := goqu.Record{
		"name":               screen.Name,
		"description":        screen.Description,
		"refresh_interval":   screen.RefreshInterval,
		"layout":             string(screen.Layout),
		"view_mode":          string(screen.ViewMode),
		"featured_widget_id": nullString(screen.FeaturedWidgetID),
		"updated_at":         screen.UpdatedAt,
	}

	query, args, err := a.qb.Update(screensTable).Prepared(true).
		Set(record).
		Where(goqu.Ex{"id": screen.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update screen", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("screen with id %s not found", screen.ID))
	}
	return nil
}

// Delete removes a screen together with its widgets
func (a *ScreenAdapter) Delete(ctx context.Context, id string) error {
	deleteWidgets, wargs, err := a.qb.Delete(widgetsTable).Prepared(true).Where(goqu.Ex{"screen_id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	deleteScreen, sargs, err := a.qb.Delete(screensTable).Prepared(true).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	return withTx(ctx, a.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteWidgets, wargs...); err != nil {
			return apperrors.NewInternalError("failed to delete screen widgets", err)
		}
		result, err := tx.ExecContext(ctx, deleteScreen, sargs...)
		if err != nil {
			return apperrors.NewInternalError("failed to delete screen", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return apperrors.NewInternalError("failed to get rows affected", err)
		}
		if rowsAffected == 0 {
			return apperrors.NewNotFoundError(fmt.Sprintf("screen with id %s not found", id))
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScreen(row rowScanner) (*entities.Screen, error) {
	s := &entities.Screen{}
	var layout, viewMode string
	var featured sql.NullString

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Description,
		&s.RefreshInterval,
		&layout,
		&viewMode,
		&featured,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Layout = entities.Layout(layout)
	s.ViewMode = entities.ViewMode(viewMode)
	if featured.Valid {
		s.FeaturedWidgetID = &featured.String
	}
	return s, nil
}

// withTx runs fn in a transaction, committing only when fn succeeds
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return apperrors.NewInternalError("failed to roll back transaction", errors.Join(err, rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}
	return nil
}
