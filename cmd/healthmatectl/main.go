package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/healthmate/api/internal/bootstrap"
	"github.com/healthmate/api/internal/config"
	"github.com/healthmate/api/internal/model"
	"github.com/healthmate/api/internal/repository/postgres"
	"github.com/healthmate/api/internal/service/booking"
	"github.com/healthmate/api/internal/service/doctor"
	"github.com/healthmate/api/internal/service/event"
	"github.com/healthmate/api/pkg/auth"
	"github.com/healthmate/api/pkg/logger"
)

var configDir string

func main() {
	rootCmd := &cobra.Command{
		Use:           "healthmatectl",
		Short:         "HealthMate operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Directory containing config.yaml")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(seedSlotsCmd())
	rootCmd.AddCommand(tokenCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}
	cfg, err := config.LoadConfig(paths...)
	if err != nil {
		return nil, err
	}
	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: "console", Output: os.Stderr})
	return cfg, nil
}

// withStores loads the config, opens the stores and runs fn.
func withStores(ctx context.Context, fn func(*config.Config, *bootstrap.Stores) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close(context.Background())
	return fn(cfg, stores)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), func(cfg *config.Config, stores *bootstrap.Stores) error {
				if err := postgres.Migrate(cmd.Context(), stores.DB); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema applied (store: %s).\n", cfg.Store)
				return nil
			})
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Complete every confirmed appointment dated before today",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStores(cmd.Context(), func(cfg *config.Config, stores *bootstrap.Stores) error {
				svc := booking.NewService(stores.Doctors, stores.Slots, stores.Appointments, event.NewEventService(stores.Outbox), nil,
					booking.WithLocation(cfg.Location()),
				)
				changed, err := svc.AutoUpdateStatuses(cmd.Context(), "")
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed %d appointment(s).\n", changed)
				return nil
			})
		},
	}
}

func seedSlotsCmd() *cobra.Command {
	var (
		doctorID   string
		date       string
		start, end string
		step       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "seed-slots",
		Short: "Create a day of free slots for a doctor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if step < time.Minute || step%time.Minute != 0 {
				return fmt.Errorf("step must be a whole number of minutes, got %s", step)
			}
			return withStores(cmd.Context(), func(cfg *config.Config, stores *bootstrap.Stores) error {
				svc := doctor.NewService(stores.Doctors, stores.Slots, nil)
				slots, err := svc.GenerateDaySlots(cmd.Context(), doctorID, model.GenerateSlotsRequest{
					Date:        date,
					Start:       start,
					End:         end,
					StepMinutes: int(step / time.Minute),
				})
				if err != nil {
					return err
				}
				for _, sl := range slots {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", sl.ID, sl.Date, sl.Time)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&doctorID, "doctor", "", "Doctor id")
	cmd.Flags().StringVar(&date, "date", "", "Date (yyyy-MM-dd)")
	cmd.Flags().StringVar(&start, "start", "10:00", "First slot (HH:MM)")
	cmd.Flags().StringVar(&end, "end", "18:00", "End of day, exclusive (HH:MM)")
	cmd.Flags().DurationVar(&step, "step", doctor.DefaultSlotStep, "Slot length")
	_ = cmd.MarkFlagRequired("doctor")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		email   string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			jwtSvc, err := auth.NewJWTService(auth.Config{
				Secret:   cfg.JWT.Secret,
				Issuer:   cfg.JWT.Issuer,
				Audience: cfg.JWT.Audience,
			})
			if err != nil {
				return err
			}
			token, err := jwtSvc.GenerateToken(subject, role, email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Patient or admin id")
	cmd.Flags().StringVar(&role, "role", auth.RolePatient, "patient or admin")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
