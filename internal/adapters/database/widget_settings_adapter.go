package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/repositories"
	apperrors "github.com/moonlysoftware/dashboard-intro-week/pkg/errors"
)

// WidgetSettingsAdapter implements WidgetSettingsRepository
type WidgetSettingsAdapter struct {
	db *sql.DB
	qb goqu.DialectWrapper
}

var _ repositories.WidgetSettingsRepository = (*WidgetSettingsAdapter)(nil)

// NewWidgetSettingsAdapter creates a new type-scoped settings adapter
func NewWidgetSettingsAdapter(db *sql.DB, dialect string) *WidgetSettingsAdapter {
	return &WidgetSettingsAdapter{db: db, qb: builder(dialect)}
}

// Get returns the stored config of t, or nil when nothing is stored
func (a *WidgetSettingsAdapter) Get(ctx context.Context, t entities.WidgetType) ([]byte, error) {
	query, args, err := a.qb.From(widgetSettingsTable).Prepared(true).
		Select("config").
		Where(goqu.Ex{"widget_type": string(t)}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var config string
	err = a.db.QueryRowContext(ctx, query, args...).Scan(&config)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get widget settings", err)
	}
	return []byte(config), nil
}

// Put stores raw as the shared config of t
func (a *WidgetSettingsAdapter) Put(ctx context.Context, t entities.WidgetType, raw []byte) error {
	now := time.Now()

	update, uargs, err := a.qb.Update(widgetSettingsTable).Prepared(true).
		Set(goqu.Record{"config": string(raw), "updated_at": now}).
		Where(goqu.Ex{"widget_type": string(t)}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}
	insert, iargs, err := a.qb.Insert(widgetSettingsTable).Prepared(true).
		Rows(goqu.Record{"widget_type": string(t), "config": string(raw), "updated_at": now}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	return withTx(ctx, a.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, update, uargs...)
		if err != nil {
			return apperrors.NewInternalError("failed to update widget settings", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return apperrors.NewInternalError("failed to get rows affected", err)
		}
		if rowsAffected > 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, insert, iargs...); err != nil {
			return apperrors.NewInternalError("failed to insert widget settings", err)
		}
		return nil
	})
}
