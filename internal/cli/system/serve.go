package system

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/julianstephens/lifeplan/internal/cli"
	"github.com/julianstephens/lifeplan/internal/keyring"
	"github.com/julianstephens/lifeplan/internal/logger"
	"github.com/julianstephens/lifeplan/internal/server"
)

const shutdownTimeout = 5 * time.Second

type ServeCmd struct {
	Addr       string        `help:"Listen address. Defaults to server.addr from config."`
	BasePath   string        `help:"API base path. Defaults to server.base_path from config."`
	PrintToken bool          `help:"Print a bearer token for --owner and exit."`
	TokenTTL   time.Duration `help:"Lifetime of the printed token." default:"720h"`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	secret, err := resolveJWTSecret(ctx)
	if err != nil {
		return err
	}

	if c.PrintToken {
		now := time.Now()
		token, err := server.IssueToken(secret, ctx.Owner, jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.TokenTTL)),
		})
		if err != nil {
			return err
		}
		ctx.Println(token)
		return nil
	}

	addr := c.Addr
	if addr == "" {
		addr = ctx.Config.Server.Addr
	}
	basePath := c.BasePath
	if basePath == "" {
		basePath = ctx.Config.Server.BasePath
	}

	handler, err := server.New(server.Config{
		Engine:    ctx.Engine,
		BasePath:  basePath,
		JWTSecret: secret,
		Today:     ctx.Today,
	})
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	listenErrs := make(chan error, 1)
	go func() {
		listenErrs <- srv.ListenAndServe()
	}()

	ctx.Printf("Serving lifeplan API on http://%s%s (OpenAPI at %s/openapi.json)\n", addr, basePath, basePath)
	logger.Info("Server started", "addr", addr, "base_path", basePath)

	select {
	case err := <-listenErrs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-sigCtx.Done():
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr := srv.Shutdown(shutdownCtx)
		listenErr := <-listenErrs
		if errors.Is(listenErr, http.ErrServerClosed) {
			listenErr = nil
		}
		return errors.Join(shutdownErr, listenErr)
	}
}

// resolveJWTSecret returns server.jwt_secret (LIFEPLAN_SERVER_JWT_SECRET),
// else the secret stored with `keyring set-secret`.
func resolveJWTSecret(ctx *cli.Context) (string, error) {
	if ctx.Config.Server.JWTSecret != "" {
		return ctx.Config.Server.JWTSecret, nil
	}
	secret, err := keyring.GetJWTSecret()
	switch {
	case err == nil:
		return secret, nil
	case errors.Is(err, keyring.ErrNotFound):
		return "", fmt.Errorf("no JWT secret configured: set LIFEPLAN_SERVER_JWT_SECRET or run 'lifeplan keyring set-secret'")
	default:
		return "", fmt.Errorf("failed to read JWT secret from keyring: %w", err)
	}
}
