package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/joestump/link-library/internal/config"
	"github.com/joestump/link-library/internal/db"
	"github.com/joestump/link-library/internal/library"
	"github.com/joestump/link-library/internal/logging"
	"github.com/joestump/link-library/internal/store"
)

// app bundles what every command needs: config, logger and a migrated
// database.
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *sqlx.DB
}

func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, err
	}

	database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(database, cfg.DB.Driver); err != nil {
		_ = database.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: database}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
	_ = a.log.Sync()
}

func (a *app) service() *library.Service {
	return library.NewService(library.Deps{
		Libraries:      store.NewLibraryStore(a.db),
		Items:          store.NewItemStore(a.db),
		ExportLocation: a.cfg.Export.Location,
		Logger:         a.log,
	})
}

// principal acts as the user with the given email.
func (a *app) principal(ctx context.Context, email string) (library.Principal, error) {
	u, err := store.NewUserStore(a.db).GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return library.Principal{}, fmt.Errorf("no user with email %q; sign in once through the web first", email)
	}
	if err != nil {
		return library.Principal{}, err
	}
	return library.Principal{UserID: u.ID}, nil
}
