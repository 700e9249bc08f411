package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/spf13/cobra"

	"github.com/impala-radio/impala/internal/db/bunx"
	"github.com/impala-radio/impala/internal/identity"
	"github.com/impala-radio/impala/internal/repository"
	"github.com/impala-radio/impala/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the catalog API server",
	Long:  `Starts the HTTP server exposing the catalog REST endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bunx.NewDB(cfg.DatabaseURL, cfg.MaxDBConnections)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		log.Printf("Connected to database")

		store := repository.NewBunStore(db)
		sessions := identity.NewSessionStore(cfg.SessionTTL)

		var verifier *identity.Verifier
		if cfg.OIDC.Enabled() {
			var staticKeys *jose.JSONWebKeySet
			if cfg.OIDC.StaticJWKSPath != "" {
				staticKeys, err = identity.LoadStaticKeySet(cfg.OIDC.StaticJWKSPath)
				if err != nil {
					return fmt.Errorf("load static key set: %w", err)
				}
				log.Printf("Using pinned key set from %s", cfg.OIDC.StaticJWKSPath)
			}

			keys, err := identity.NewKeyCache(staticKeys, nil)
			if err != nil {
				return fmt.Errorf("configure key cache: %w", err)
			}

			verifier, err = identity.NewVerifier(identity.VerifierConfig{
				Issuer:           cfg.OIDC.Issuer,
				ClientID:         cfg.OIDC.ClientID,
				Leeway:           cfg.OIDC.Leeway,
				GroupsClaimField: cfg.OIDC.GroupsClaimField,
				GroupsClaimPath:  cfg.OIDC.GroupsClaimPath,
			}, keys)
			if err != nil {
				return fmt.Errorf("configure token verifier: %w", err)
			}
			log.Printf("Token login enabled for issuer %s", cfg.OIDC.Issuer)
		}

		var localUsers map[string]*identity.LocalUser
		if cfg.CredentialsFile != "" {
			localUsers, err = identity.LoadCredentialsFile(cfg.CredentialsFile)
			if err != nil {
				return fmt.Errorf("load credentials file: %w", err)
			}
			log.Printf("Loaded %d local users from %s", len(localUsers), cfg.CredentialsFile)
		}

		handler := server.NewH2CHandler(server.RouterOptions{
			Store:           store,
			Sessions:        sessions,
			Verifier:        verifier,
			LocalUsers:      localUsers,
			LibrarianGroups: cfg.OIDC.LibrarianGroups,
		})

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			log.Printf("Starting server on %s", cfg.ServerAddr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.Printf("Received signal %v, shutting down gracefully", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			log.Printf("Server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
