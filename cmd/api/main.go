package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appanalytics "github.com/jhoicas/retail-api/internal/application/analytics"
	"github.com/jhoicas/retail-api/internal/application/auth"
	"github.com/jhoicas/retail-api/internal/application/inventory"
	"github.com/jhoicas/retail-api/internal/application/purchasing"
	"github.com/jhoicas/retail-api/internal/application/sales"
	"github.com/jhoicas/retail-api/internal/application/usecase"
	domaininv "github.com/jhoicas/retail-api/internal/domain/inventory"
	"github.com/jhoicas/retail-api/internal/domain/repository"
	"github.com/jhoicas/retail-api/internal/infrastructure/memory"
	"github.com/jhoicas/retail-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/retail-api/internal/interfaces/http"
	"github.com/jhoicas/retail-api/pkg/config"
	"github.com/jhoicas/retail-api/pkg/logger"
)

// store lo que la aplicación necesita del backend de persistencia.
type store interface {
	inventory.TxRunner
	Repos() inventory.Repos
	Ping(ctx context.Context) error
}

// backend store abierto junto con los repositorios que no participan de transacciones.
type backend struct {
	store
	users     repository.UserRepository
	analytics repository.AnalyticsRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	db, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer db.close()

	repos := db.Repos()
	ledger := inventory.NewStockLedger(db, repos.Products, repos.Movements, domaininv.Policy{
		AllowNegativeAdjustment: cfg.Ledger.AllowNegativeAdjustment,
	})
	productUC := usecase.NewProductUseCase(db, ledger, repos.Products)
	customerUC := usecase.NewCustomerUseCase(repos.Customers)
	saleUC := sales.NewSaleUseCase(db, ledger, repos.Sales)
	returnUC := sales.NewReturnUseCase(db, ledger, repos.Returns)
	purchaseOrderUC := purchasing.NewPurchaseOrderUseCase(db, ledger, repos.PurchaseOrders)
	dashboardUC := appanalytics.NewDashboardUseCase(db.analytics, repos.Products)
	authUC := auth.NewAuthUseCase(db.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.App.DocsEnabled {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Retail API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:          ledger,
		ProductUC:       productUC,
		CustomerUC:      customerUC,
		SaleUC:          saleUC,
		ReturnUC:        returnUC,
		PurchaseOrderUC: purchaseOrderUC,
		DashboardUC:     dashboardUC,
		AuthUC:          authUC,
		JWTSecret:       cfg.JWT.Secret,
		ServiceName:     cfg.App.Name,
		Store:           db,
		Logger:          log.Component("http").Zerolog(),
		RequestTimeout:  cfg.HTTP.RequestTimeout,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStore abre el backend configurado. Con postgres aplica las migraciones embebidas si DB_AUTO_MIGRATE.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.DB.Driver == config.DriverMemory {
		log.Warn().Msg("DB_DRIVER=memory: los datos se pierden al reiniciar")
		mem := memory.NewStore()
		return &backend{store: mem, users: mem.Users(), analytics: mem.Analytics(), close: func() {}}, nil
	}

	if cfg.DB.AutoMigrate {
		mg, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log.Component("migrate").Zerolog())
		if err != nil {
			return nil, err
		}
		upErr := mg.Up()
		if err := mg.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar migrador")
		}
		if upErr != nil {
			return nil, upErr
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	pg := postgres.NewStore(pool)
	return &backend{store: pg, users: pg.Users(), analytics: pg.Analytics(), close: pool.Close}, nil
}
