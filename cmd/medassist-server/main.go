package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/medassist/gateway/internal/config"
	"github.com/medassist/gateway/internal/platform/db"
	"github.com/medassist/gateway/internal/platform/gated"
	"github.com/medassist/gateway/internal/platform/sandbox"
	"github.com/medassist/gateway/migrations"
)

var stdout io.Writer = os.Stdout

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "medassist-server",
		Short:         "MedAssist operation gateway",
		SilenceUsage:  true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(outboxCmd())
	root.AddCommand(policyCmd())
	root.AddCommand(seedCmd())
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and the audit outbox relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return err
	}
	defer a.close()

	e, err := a.router()
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return err
	}

	relayCtx, cancelRelay := context.WithCancel(ctx)
	defer cancelRelay()
	go func() {
		if err := a.relay().Run(relayCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("outbox relay stopped")
		}
	}()

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema (ROWSTORE_DRIVER=postgres)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				n, err := m.Up(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "applied %d migration(s)\n", n)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED AT")
				for _, s := range statuses {
					applied := "pending"
					if s.AppliedAt != nil {
						applied = s.AppliedAt.Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%03d\t%s\t%s\n", s.Version, s.Name, applied)
				}
				return w.Flush()
			})
		},
	})
	return cmd
}

func withMigrator(ctx context.Context, fn func(context.Context, *db.Migrator) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.RowStoreDriver != config.DriverPostgres {
		return fmt.Errorf("migrations need ROWSTORE_DRIVER=%s, got %q", config.DriverPostgres, cfg.RowStoreDriver)
	}
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:             cfg.DatabaseURL,
		MaxConns:        2,
		ApplicationName: "medassist-migrate",
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	return fn(ctx, db.NewMigrator(pool, migrations.FS))
}

func outboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect the audit outbox",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "drain",
		Short: "Append every due outbox entry to audit_logs once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, newLogger(cfg.Env))
			if err != nil {
				return err
			}
			defer a.close()

			relayed, retried, err := a.relay().Drain(ctx)
			if err != nil {
				return err
			}
			left, err := a.outbox.Len(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "relayed %d, rescheduled %d, %d left in outbox\n", relayed, retried, left)
			return nil
		},
	})
	return cmd
}

func policyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the operation policy",
	}
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the roles allowed for each operation",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				file = os.Getenv("POLICY_FILE")
			}
			p, err := gated.LoadPolicy(file)
			if err != nil {
				return err
			}
			return printPolicy(stdout, p)
		},
	}
	show.Flags().String("file", "", "Policy YAML file (defaults to POLICY_FILE)")
	cmd.AddCommand(show)
	return cmd
}

func printPolicy(out io.Writer, p *gated.Policy) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACTION\tROLES")
	for _, action := range p.Actions() {
		roles, _ := p.Allowed(action)
		fmt.Fprintf(w, "%s\t%s\n", action, roles)
	}
	return w.Flush()
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert reproducible demo hospitals, staff, patients and activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to seed demo data in production")
			}
			if cfg.RowStoreDriver == config.DriverMemory {
				return fmt.Errorf("the memory row-store does not outlive this command; set SANDBOX_PATIENTS for serve instead")
			}

			seed := sandbox.DefaultSeedConfig()
			seed.HospitalCount, _ = cmd.Flags().GetInt("hospitals")
			seed.PatientCount, _ = cmd.Flags().GetInt("patients")
			seed.Seed, _ = cmd.Flags().GetInt64("seed")

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, newLogger(cfg.Env))
			if err != nil {
				return err
			}
			defer a.close()

			res, err := sandbox.NewSeeder(seed, time.Now().UTC()).Load(ctx, a.rows)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "seeded %d hospitals, %d profiles, %d patients, %d appointments, %d prescriptions in %s\n",
				res.Hospitals, res.Profiles, res.Patients, res.Appointments, res.Prescriptions, res.Duration.Round(time.Millisecond))
			return nil
		},
	}
	def := sandbox.DefaultSeedConfig()
	cmd.Flags().Int("hospitals", def.HospitalCount, "Number of hospitals")
	cmd.Flags().Int("patients", def.PatientCount, "Number of patients")
	cmd.Flags().Int64("seed", def.Seed, "Random seed; the same seed yields the same data")
	return cmd
}
