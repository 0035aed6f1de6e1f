package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/moonlysoftware/dashboard-intro-week/internal/adapters/database"
	"github.com/moonlysoftware/dashboard-intro-week/internal/application/services"
	"github.com/moonlysoftware/dashboard-intro-week/internal/domain/entities"
	"github.com/moonlysoftware/dashboard-intro-week/internal/infrastructure/clients/postgres"
	"github.com/moonlysoftware/dashboard-intro-week/internal/infrastructure/clients/sqlite"
	"github.com/moonlysoftware/dashboard-intro-week/internal/infrastructure/observability"
	"github.com/moonlysoftware/dashboard-intro-week/pkg/config"
)

type seedWidget struct {
	typ    entities.WidgetType
	slot   int
	config any
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger("dashboard-seed", cfg.Server.Env, cfg.Server.LogLevel)

	ctx := context.Background()

	db, dialect, closeDB, err := open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer closeDB()

	if err := database.EnsureSchema(ctx, db, dialect); err != nil {
		log.Fatal().Err(err).Msg("Failed to create schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, clearing tables before seeding")
		for _, table := range []string{"widgets", "widget_type_settings", "screens"} {
			if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				log.Fatal().Err(err).Str("table", table).Msg("Failed to reset table")
			}
		}
	}

	screenRepo := database.NewScreenAdapter(db, dialect)
	widgetRepo := database.NewWidgetAdapter(db, dialect)
	configService := services.NewConfigService(widgetRepo, database.NewWidgetSettingsAdapter(db, dialect))
	layoutService := services.NewLayoutService(screenRepo, widgetRepo, configService)
	screenService := services.NewScreenService(screenRepo, widgetRepo, layoutService)

	screen, err := screenService.Create(ctx, services.ScreenInput{
		Name:            "Office Lobby",
		Description:     "Intro week dashboard at the entrance",
		RefreshInterval: 30,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create screen")
	}
	log.Info().Str("screen_id", screen.ID).Msg("Created screen")

	// New screens start small: slots 0 and 3 are small, 1 and 2 are wide
	widgets := []seedWidget{
		{entities.WidgetTypeBirthday, 0, entities.BirthdayConfig{
			People: []entities.Person{
				{Name: "Sanne de Vries", BirthDate: "1994-10-16"},
				{Name: "Daan Bakker", BirthDate: "1988-10-20"},
			},
			DaysAhead: 14,
		}},
		{entities.WidgetTypeRoomAvailability, 1, entities.RoomAvailabilityConfig{
			Rooms: []entities.RoomConfig{
				{Name: "Amsterdam", CalendarID: "amsterdam@resource.calendar.google.com"},
				{Name: "Rotterdam", CalendarID: "rotterdam@resource.calendar.google.com"},
			},
		}},
		{entities.WidgetTypeAnnouncements, 2, entities.AnnouncementsConfig{
			Announcements: []entities.Announcement{
				{Title: "Welcome", Message: "Welcome to intro week!"},
				{Title: "Lunch", Message: "Team lunch on Friday at 12:30 in the canteen."},
			},
		}},
		{entities.WidgetTypeClockWeather, 3, entities.ClockWeatherConfig{
			Latitude:  52.3676,
			Longitude: 4.9041,
			Timezone:  "Europe/Amsterdam",
		}},
	}

	for _, sw := range widgets {
		raw, err := json.Marshal(sw.config)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to encode widget config")
		}
		w, err := layoutService.PlaceWidget(ctx, services.PlaceWidgetInput{
			ScreenID:    screen.ID,
			WidgetType:  sw.typ,
			Slot:        sw.slot,
			GridColSpan: 1,
			GridRowSpan: 1,
			Config:      raw,
		})
		if err != nil {
			log.Error().Err(err).Str("widget_type", string(sw.typ)).Int("slot", sw.slot).Msg("Failed to place widget")
			continue
		}
		log.Info().Str("widget_id", w.ID).Str("widget_type", string(sw.typ)).Int("slot", sw.slot).Msg("Placed widget")
	}

	log.Info().Msg("Seeding completed")
}

func open(cfg *config.Config) (*sql.DB, string, func() error, error) {
	if cfg.Storage.Driver == "sqlite" {
		client, err := sqlite.NewClient(&cfg.Storage)
		if err != nil {
			return nil, "", nil, err
		}
		return client.DB(), database.DialectSQLite, client.Close, nil
	}
	if cfg.Storage.Driver == "memory" {
		log.Warn().Msg("STORAGE_DRIVER=memory cannot be seeded, using postgres")
	}
	client, err := postgres.NewClient(context.Background(), &cfg.Database)
	if err != nil {
		return nil, "", nil, err
	}
	return client.DB(), database.DialectPostgres, client.Close, nil
}
