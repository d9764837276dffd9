package wire

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/spf13/viper"

	"github.com/mithrel/inkpad/internal/config"
	"github.com/mithrel/inkpad/internal/db"
	"github.com/mithrel/inkpad/internal/render"
)

// App aggregates the major services for easy injection.
type App struct {
	Cfg      *viper.Viper
	Log      *log.Logger
	Store    *db.Store
	Renderer *render.Renderer

	closer io.Closer
}

// BuildApp wires dependencies with the provided config.
func BuildApp(ctx context.Context, v *viper.Viper) (*App, error) {
	logger := log.New(os.Stderr, "inkpad ", log.LstdFlags)

	dsn := "sqlite://" + config.ResolveDBPath(v)
	store, closer, err := db.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}

	return &App{
		Cfg:      v,
		Log:      logger,
		Store:    store,
		Renderer: render.New(),
		closer:   closer,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
