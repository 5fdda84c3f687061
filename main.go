package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/joho/godotenv"
	"github.com/khanghh/signup-otp/internal/config"
	"github.com/khanghh/signup-otp/internal/handlers"
	"github.com/khanghh/signup-otp/internal/middlewares"
	"github.com/khanghh/signup-otp/internal/middlewares/csrf"
	"github.com/khanghh/signup-otp/internal/middlewares/sessions"
	"github.com/khanghh/signup-otp/internal/notify"
	"github.com/khanghh/signup-otp/internal/oauth"
	"github.com/khanghh/signup-otp/internal/render"
	"github.com/khanghh/signup-otp/internal/signup"
	"github.com/khanghh/signup-otp/internal/store"
	"github.com/khanghh/signup-otp/params"
	"github.com/urfave/cli/v2"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
	gitTag    string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	envFileFlag = &cli.StringFlag{
		Name:  "env-file",
		Usage: "Dotenv file with identity provider credentials",
		Value: ".env",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "Sign-up server with email OTP verification"
	app.Flags = []cli.Flag{
		configFileFlag,
		envFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
	}
	app.Action = run
}

func initLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func loadEnvFile(filename string) error {
	err := godotenv.Load(filename)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func newSessionStore(config *config.Config) *session.Store {
	storage := store.NewKVStorage(store.NewMemoryStorage(time.Minute), params.SessionStoreKeyPrefix)
	return session.New(session.Config{
		Storage:        storage,
		Expiration:     config.Session.SessionMaxAge,
		KeyLookup:      "cookie:" + config.Session.CookieName,
		CookieHTTPOnly: config.Session.CookieHttpOnly,
		CookieSecure:   config.Session.CookieSecure,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		KeyGenerator:   sessions.GenerateSessionID,
	})
}

func run(ctx *cli.Context) error {
	if err := loadEnvFile(ctx.String(envFileFlag.Name)); err != nil {
		slog.Error("Could not load env file.", "error", err)
		return err
	}
	config, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}
	initLogger(config.Debug || ctx.IsSet(debugFlag.Name))

	globalVars := fiber.Map{
		"siteName": config.AppName,
	}
	render.InitValues(globalVars)
	htmlEngine := render.NewHtmlEngine(config.TemplateDir)
	if config.Debug {
		htmlEngine.Reload(true)
	}

	notifier := notify.NewConsoleNotifier(htmlEngine, globalVars, slog.Default())
	codeService := signup.NewSimulatedCodeService(config.Signup.SimulatedLatency, notifier)
	registry := signup.NewRegistry(signup.Options{Codes: codeService}, config.Signup.FlowIdleTimeout)
	registry.Start(params.FlowJanitorInterval)
	defer registry.Close()

	google := config.IdentityProviders.Google
	googleProvider := oauth.NewGoogleProvider(google.ClientID, google.ClientSecret, google.RedirectURL)
	if !googleProvider.Configured() {
		slog.Warn("Google sign-in is disabled, no client ID configured", "env", params.DefaultGoogleClientEnv)
	}

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		Views:         htmlEngine,
		ViewsLayout:   "layouts/main",
		ErrorHandler:  middlewares.ErrorHandler,
	})
	router.Use(recover.New())
	if config.Debug {
		router.Use(logger.New())
	}
	router.Static("/static", config.StaticDir)
	router.Use(sessions.SessionMiddleware(newSessionStore(config)))
	router.Use(csrf.New())

	flowHandler := handlers.NewFlowHandler(registry, googleProvider)
	handlers.SetupRoutes(router, handlers.NewSignupHandler(flowHandler), handlers.NewOAuthHandler(flowHandler))

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		slog.Info("Shutting down server")
		if err := router.ShutdownWithTimeout(5 * time.Second); err != nil {
			slog.Error("Could not shut down server", "error", err)
		}
	}()

	slog.Info("Starting sign-up server", "address", config.ListenAddr, "version", params.VersionWithMeta)
	return router.Listen(config.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
