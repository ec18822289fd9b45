// Command authd runs the ClearLine authentication service.
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/clearline/authd/internal/auth"
	"github.com/clearline/authd/internal/bootstrap"
	"github.com/clearline/authd/internal/config"
	"github.com/clearline/authd/internal/email"
	httpx "github.com/clearline/authd/internal/http"
	"github.com/clearline/authd/internal/http/handlers"
	jwtx "github.com/clearline/authd/internal/jwt"
	"github.com/clearline/authd/internal/metrics"
	"github.com/clearline/authd/internal/observability/logger"
	"github.com/clearline/authd/internal/rate"
	"github.com/clearline/authd/internal/security/password"
	"github.com/clearline/authd/internal/store"
	memstore "github.com/clearline/authd/internal/store/memory"
	pgstore "github.com/clearline/authd/internal/store/pg"
)

var version = "dev"

func main() {
	// .env is optional; the environment always applies either way.
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:          "authd",
		Short:        "Authentication and credential-recovery service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("AUTHD_CONFIG"), "path to YAML config")

	root.AddCommand(serveCmd(&cfgPath))
	root.AddCommand(genkeyCmd())
	root.AddCommand(seedAdminCmd(&cfgPath))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.Log.Level,
				ServiceName: "authd",
				Version:     version,
			})
			defer func() { _ = logger.Sync() }()
			log := logger.Named("main")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			issuer, err := buildIssuer(cfg)
			if err != nil {
				return err
			}

			mailer, err := buildEmail(cfg)
			if err != nil {
				return err
			}
			if !mailer.Enabled() {
				log.Warn("SMTP not configured, password reset emails will not be delivered")
			}

			svc := auth.NewService(auth.Deps{
				Store:        st,
				Issuer:       issuer,
				Email:        mailer,
				Policy:       &password.Policy{MinLength: cfg.Auth.Password.MinLength, MaxLength: 128},
				AdminSecret:  cfg.Auth.AdminSecret,
				ResetTTL:     config.Duration(cfg.Auth.ResetTTL, 0),
				EmailTimeout: config.Duration(cfg.Email.Timeout, 0),
			})

			router := httpx.NewRouter(httpx.RouterConfig{
				Auth:               handlers.NewAuth(svc),
				Health:             &handlers.Health{Store: st},
				ForgotLimiter:      buildLimiter(cfg),
				TrustProxyHeaders:  cfg.Server.TrustProxyHeaders,
				CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
				Metrics:            metrics.Register(nil),
			})

			return httpx.Serve(ctx, cfg.Server.Addr, router)
		},
	}
}

func genkeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genkey",
		Short: "Generate a base64 Ed25519 signing seed for jwt.ed25519_seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := make([]byte, ed25519.SeedSize)
			if _, err := rand.Read(seed); err != nil {
				return err
			}
			fmt.Println(base64.StdEncoding.EncodeToString(seed))
			return nil
		},
	}
}

func seedAdminCmd(cfgPath *string) *cobra.Command {
	var name, emailAddr, pass string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the first admin principal directly against the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "authd"})
			defer func() { _ = logger.Sync() }()

			ctx := context.Background()
			st, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			return bootstrap.SeedAdmin(ctx, st, bootstrap.SeedAdminInput{
				Name:     name,
				Email:    emailAddr,
				Password: pass,
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&emailAddr, "email", "", "admin email (required)")
	cmd.Flags().StringVar(&pass, "password", "", "admin password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func openStore(ctx context.Context, cfg *config.Config) (store.CredentialStore, func(), error) {
	switch cfg.Storage.Driver {
	case "", "memory":
		logger.Named("store").Warn("using in-memory credential store, data will not survive restarts")
		return memstore.New(), func() {}, nil
	case "postgres":
		st, err := pgstore.Open(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func buildIssuer(cfg *config.Config) (*jwtx.Issuer, error) {
	var seed []byte
	if cfg.JWT.Ed25519Seed != "" {
		b, err := base64.StdEncoding.DecodeString(cfg.JWT.Ed25519Seed)
		if err != nil {
			return nil, fmt.Errorf("decode jwt.ed25519_seed: %w", err)
		}
		seed = b
	} else {
		logger.Named("jwt").Warn("no signing seed configured, sessions will not survive restarts")
	}
	return jwtx.NewIssuer(cfg.JWT.Issuer, seed, config.Duration(cfg.JWT.AccessTTL, 0))
}

func buildEmail(cfg *config.Config) (email.Service, error) {
	if cfg.SMTP.Host == "" {
		return email.Disabled(), nil
	}
	return email.NewSMTP(email.SMTPConfig{
		Host:               cfg.SMTP.Host,
		Port:               cfg.SMTP.Port,
		Username:           cfg.SMTP.Username,
		Password:           cfg.SMTP.Password,
		From:               cfg.SMTP.From,
		TLSMode:            cfg.SMTP.TLS,
		InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		BaseURL:            cfg.Email.BaseURL,
		DialTimeout:        config.Duration(cfg.Email.Timeout, 0),
	})
}

func buildLimiter(cfg *config.Config) rate.Limiter {
	if !cfg.Rate.Enabled {
		return nil
	}
	limit := cfg.Rate.Forgot.Limit
	window := config.Duration(cfg.Rate.Forgot.Window, 0)

	if cfg.Rate.Backend == "redis" && cfg.Rate.Redis.Addr != "" {
		client := rdb.NewClient(&rdb.Options{Addr: cfg.Rate.Redis.Addr, DB: cfg.Rate.Redis.DB})
		return rate.NewRedisLimiter(client, cfg.Rate.Redis.Prefix, limit, window)
	}
	return rate.NewMemoryLimiter(limit, window)
}
