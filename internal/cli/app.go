package cli

import (
	"fmt"

	"github.com/soyeahso/backoffice/internal/admin"
	"github.com/soyeahso/backoffice/internal/config"
	"github.com/soyeahso/backoffice/internal/i18n"
	"github.com/soyeahso/backoffice/internal/store"
)

// app is the wiring shared by every command that touches the database.
type app struct {
	cfg   config.Config
	db    *store.DB
	admin *admin.Service
}

// openApp loads the config, opens the database and wires the back-office
// subscribers. Callers must Close the returned app.
func openApp() (*app, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, err
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return nil, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("creating directories: %w", err)
	}

	bundle, err := i18n.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("loading translations: %w", err)
	}

	db, err := store.Open(paths.DatabasePath(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	svc := admin.Wire(store.New(db), paths.CacheDir(cfg), bundle.Translator(cfg.I18n.Locale), log)
	return &app{cfg: cfg, db: db, admin: svc}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// withApp runs fn against an opened app and closes it afterwards.
func withApp(fn func(a *app) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
