package main

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	accounts "github.com/accountsd/go-accounts"
	"github.com/accountsd/go-accounts/middleware/jwtware"
)

//go:embed client
var clientFS embed.FS

func main() {
	cfg, err := accounts.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	repo := accounts.NewRepositoryManager(db)
	repo.MustValidate()

	provider := accounts.NewUserProvider(repo.Users())
	auther := accounts.NewAuthenticator(provider, cfg)

	app := buildApp(cfg, repo, auther)

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Printf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func openDatabase(ctx context.Context, cfg *accounts.Config) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := accounts.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func buildApp(cfg *accounts.Config, repo accounts.RepositoryManager, auther *accounts.Auther) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "accounts",
	})

	app.Use(recover.New())
	app.Use(cors.New())

	guard := jwtware.New(jwtware.Config{
		TokenValidator: accounts.GuardTokenValidator(auther.TokenService()),
		ContextKey:     cfg.ContextKey,
		AuthScheme:     cfg.AuthScheme,
		TokenLookup:    cfg.TokenLookup,
		UserResolver:   accounts.ResolveRequestUser(repo.Users()),
		ContextEnricher: func(ctx context.Context, user any) context.Context {
			if u, ok := user.(*accounts.User); ok {
				return accounts.WithContext(ctx, u)
			}
			return ctx
		},
	})

	controller := accounts.NewAccountController(
		accounts.WithRepositoryManager(repo),
		accounts.WithAuthenticator(auther),
		accounts.WithDebug(cfg.Debug),
	)
	controller.RegisterRoutes(app.Group("/api/users"), guard)

	client, err := fs.Sub(clientFS, "client")
	if err != nil {
		log.Fatalf("client assets: %v", err)
	}

	app.Use("/", filesystem.New(filesystem.Config{
		Root:         http.FS(client),
		Index:        "index.html",
		NotFoundFile: "index.html",
	}))

	return app
}
