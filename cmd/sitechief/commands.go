package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/santiyeai/sitechief/internal/auth"
	"github.com/santiyeai/sitechief/internal/config"
	"github.com/santiyeai/sitechief/internal/db"
	"github.com/santiyeai/sitechief/internal/logger"
	"github.com/santiyeai/sitechief/internal/sheets"
	"github.com/santiyeai/sitechief/internal/tenants"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)
			return db.Migrate(logger.L, cfg.Postgres)
		},
	}
}

func newCompaniesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "companies",
		Short: "List registered companies and their onboarding codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)
			conn, queries, err := openQueries(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			items, err := tenants.NewService(logger.L, queries).List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d companies:\n", len(items))
			for _, item := range items {
				fmt.Fprintf(out, "Name: %s, Code: %s\n", item.Name, item.Code)
			}
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var expiresIn string
	cmd := &cobra.Command{
		Use:   "token <user_id>",
		Short: "Issue a web access token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if expiresIn == "" {
				expiresIn = cfg.Auth.JWTExpiresIn
			}
			ttl, err := time.ParseDuration(expiresIn)
			if err != nil {
				return fmt.Errorf("invalid expires-in: %w", err)
			}
			token, expiresAt, err := auth.GenerateToken(strings.TrimSpace(args[0]), cfg.Auth.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&expiresIn, "expires-in", "", "token lifetime (default from config, "+config.DefaultJWTExpiresIn+")")
	return cmd
}

func newImportBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-budget <company_code> <file.xlsx>",
		Short: "Import budget items from a spreadsheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)
			conn, queries, err := openQueries(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			company, err := queries.GetCompanyByCode(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("company %q: %w", args[0], err)
			}
			summary := sheets.NewImporter(logger.L, queries).Import(cmd.Context(), args[1], db.UUIDString(company.ID))
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}
