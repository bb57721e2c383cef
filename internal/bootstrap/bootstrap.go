package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"

	cataloginadapter "bnkchallenge/internal/modules/catalog/adapter/in"
	catalogoutadapter "bnkchallenge/internal/modules/catalog/adapter/out"
	catalogin "bnkchallenge/internal/modules/catalog/port/in"
	catalogout "bnkchallenge/internal/modules/catalog/port/out"
	catalogservice "bnkchallenge/internal/modules/catalog/service"
	catalogusecase "bnkchallenge/internal/modules/catalog/usecase"
	locationinadapter "bnkchallenge/internal/modules/location/adapter/in"
	locationoutadapter "bnkchallenge/internal/modules/location/adapter/out"
	locationout "bnkchallenge/internal/modules/location/port/out"
	locationservice "bnkchallenge/internal/modules/location/service"
	locationusecase "bnkchallenge/internal/modules/location/usecase"
	notifyinadapter "bnkchallenge/internal/modules/notify/adapter/in"
	notifyoutadapter "bnkchallenge/internal/modules/notify/adapter/out"
	notifyservice "bnkchallenge/internal/modules/notify/service"
	notifyusecase "bnkchallenge/internal/modules/notify/usecase"
	trackinginadapter "bnkchallenge/internal/modules/tracking/adapter/in"
	trackingoutadapter "bnkchallenge/internal/modules/tracking/adapter/out"
	trackingdto "bnkchallenge/internal/modules/tracking/dto"
	trackingout "bnkchallenge/internal/modules/tracking/port/out"
	trackingservice "bnkchallenge/internal/modules/tracking/service"
	trackingusecase "bnkchallenge/internal/modules/tracking/usecase"
	walletinadapter "bnkchallenge/internal/modules/wallet/adapter/in"
	walletoutadapter "bnkchallenge/internal/modules/wallet/adapter/out"
	walletin "bnkchallenge/internal/modules/wallet/port/in"
	walletservice "bnkchallenge/internal/modules/wallet/service"
	walletusecase "bnkchallenge/internal/modules/wallet/usecase"
	"bnkchallenge/internal/platform/clock"
	"bnkchallenge/internal/platform/config"
	"bnkchallenge/internal/platform/hostbridge"
	"bnkchallenge/internal/platform/id"
	"bnkchallenge/internal/platform/logging"
	"bnkchallenge/internal/platform/sqlitedb"
	uiapp "bnkchallenge/internal/ui/app"
)

const completionTimeout = 5 * time.Second

type App struct {
	CatalogCLI  cataloginadapter.CLIHandler
	WalletCLI   walletinadapter.CLIHandler
	TrackingCLI trackinginadapter.CLIHandler
	LocationCLI locationinadapter.CLIHandler
	NotifyCLI   notifyinadapter.CLIHandler

	// Bridge is nil unless a host binary is configured and answered.
	Bridge *hostbridge.Bridge

	// Sampler and LocationSource name the backends that were picked.
	Sampler        string
	LocationSource string

	closers []func()
}

// New wires every module against cfg. Close releases the database, the host
// process and the redis client.
func New(ctx context.Context, cfg config.Config, logger hclog.Logger) (*App, error) {
	logger = logging.OrDiscard(logger)
	app := &App{}
	clk := clock.SystemClock{}

	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func() { _ = db.Close() })

	catalogUC, err := newCatalog(ctx, cfg, db, clk, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	walletUC, err := newWallet(ctx, cfg, db, clk, catalogUC)
	if err != nil {
		app.Close()
		return nil, err
	}

	if cfg.HostBridgeBinary != "" {
		bridge, err := hostbridge.Launch(ctx, cfg.HostBridgeBinary, logger)
		if err != nil {
			logger.Warn("host bridge unavailable, using local backends", "binary", cfg.HostBridgeBinary, "error", err)
		} else {
			app.Bridge = bridge
			app.closers = append(app.closers, bridge.Close)
		}
	}

	journal, err := trackingoutadapter.NewSQLiteJournal(ctx, db)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("new tracking journal: %w", err)
	}
	var relay trackingout.Relay
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		app.closers = append(app.closers, func() { _ = client.Close() })
		relay = trackingoutadapter.NewRedisRelay(client)
	}

	var sampler trackingout.Sampler
	if app.Bridge != nil && app.Bridge.Has(hostbridge.CapabilityGeofence) {
		sampler = trackingoutadapter.NewHostBridgeSampler(app.Bridge, clk, logger)
		app.Sampler = "host_bridge"
	} else {
		sampler = trackingoutadapter.NewStandInSampler(nil)
		app.Sampler = "stand_in"
	}
	trackingUC := trackingusecase.NewInteractor(trackingservice.NewTracker(
		clk,
		id.UUID{},
		sampler,
		trackingoutadapter.NewWalletBridge(walletUC),
		trackingservice.Options{Journal: journal, Relay: relay, Logger: logger},
	))
	app.closers = append(app.closers, func() { _ = trackingUC.StopTracking(context.Background()) })
	trackingUC.OnComplete(func(c trackingdto.Completion) {
		markCtx, cancel := context.WithTimeout(context.Background(), completionTimeout)
		defer cancel()
		if err := catalogUC.MarkCompleted(markCtx, c.MissionID); err != nil {
			logger.Warn("mark mission completed failed", "mission", c.MissionID, "error", err)
		}
	})

	source, err := pickLocationSource(cfg, app.Bridge, clk)
	if err != nil {
		app.Close()
		return nil, err
	}
	if source != nil {
		app.LocationSource = string(source.Kind())
	}
	provider := locationservice.NewProvider(source, clk, logger, 0)

	notifyUC := notifyusecase.NewInteractor(notifyservice.NewNotifyService(
		notifyoutadapter.NewHTTPSender(cfg.AdminAPIBaseURL, cfg.AdminToken, cfg.RequestTimeout),
		logger,
	))

	app.CatalogCLI = cataloginadapter.NewCLIHandler(catalogUC)
	app.WalletCLI = walletinadapter.NewCLIHandler(walletUC)
	app.TrackingCLI = trackinginadapter.NewCLIHandler(trackingUC)
	app.LocationCLI = locationinadapter.NewCLIHandler(locationusecase.NewInteractor(provider))
	app.NotifyCLI = notifyinadapter.NewCLIHandler(notifyUC)
	return app, nil
}

// Close stops tracking and releases resources in reverse order.
func (a *App) Close() {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newCatalog(ctx context.Context, cfg config.Config, db *sql.DB, clk clock.Clock, logger hclog.Logger) (catalogin.Usecase, error) {
	seed, err := catalogoutadapter.NewSeedCatalog()
	if err != nil {
		return nil, fmt.Errorf("load seed catalog: %w", err)
	}
	store, err := catalogoutadapter.NewSQLiteStateStore(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("new catalog state store: %w", err)
	}
	var remote catalogout.RemoteCatalog
	if cfg.APIBaseURL != "" {
		remote = catalogoutadapter.NewHTTPCatalog(cfg.APIBaseURL, cfg.RequestTimeout)
	}
	svc := catalogservice.NewCatalogService(remote, seed, store, clk, cfg.UserID, logger)
	return catalogusecase.NewInteractor(svc), nil
}

// newWallet opens the ledger. A fresh ledger starts from the profile balance.
func newWallet(ctx context.Context, cfg config.Config, db *sql.DB, clk clock.Clock, catalog catalogin.Usecase) (walletin.Usecase, error) {
	ledger, err := walletoutadapter.NewSQLiteLedger(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("new wallet ledger: %w", err)
	}
	opening := cfg.StartingBalance
	if user, err := catalog.CurrentUser(ctx); err == nil && user.CoinBalance > 0 {
		opening = user.CoinBalance
	}
	svc := walletservice.NewWalletService(clk, id.UUID{}, ledger, opening)
	return walletusecase.NewInteractor(svc), nil
}

// pickLocationSource prefers the host, then gpsd, then a fixed coordinate.
// It returns a nil source when nothing is configured.
func pickLocationSource(cfg config.Config, bridge *hostbridge.Bridge, clk clock.Clock) (locationout.LocationSource, error) {
	switch {
	case bridge != nil && bridge.Has(hostbridge.CapabilityLocation):
		return locationoutadapter.NewHostBridgeSource(bridge), nil
	case cfg.GPSDAddr != "":
		return locationoutadapter.NewGPSDSource(cfg.GPSDAddr, clk), nil
	case cfg.FixedLocation != "":
		lat, lng, err := config.ParseCoordinate(cfg.FixedLocation)
		if err != nil {
			return nil, fmt.Errorf("fixed location %q: %w", cfg.FixedLocation, err)
		}
		return locationoutadapter.NewFixedSource(lat, lng), nil
	default:
		return nil, nil
	}
}

// RunTUI runs the mission browser until the user quits.
func RunTUI(app *App) error {
	model := uiapp.NewModel(app.CatalogCLI, app.TrackingCLI, app.WalletCLI, app.LocationCLI)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
