package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/civicops/complaintflow/pkg/cmd"
	"github.com/civicops/complaintflow/pkg/escalation"
	"github.com/civicops/complaintflow/pkg/log"
	"github.com/civicops/complaintflow/pkg/otelhelper"
	"github.com/civicops/complaintflow/pkg/runlock"
	"github.com/civicops/complaintflow/pkg/template"
)

func main() {
	command := &cli.Command{
		Name:                  "complaintflow-worker",
		EnableShellCompletion: true,
		Usage:                 "Start workers to execute complaint workflows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus type (kafka, gochannel)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis connection URL for per-complaint run locks",
				Value:   "",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "gateway-url",
				Usage:   "Base URL of the notification gateway",
				Value:   "",
				Sources: cli.EnvVars("NOTIFICATION_GATEWAY_URL"),
			},
			&cli.StringFlag{
				Name:    "gateway-api-key",
				Usage:   "API key for the notification gateway",
				Value:   "",
				Sources: cli.EnvVars("NOTIFICATION_GATEWAY_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "templates-path",
				Usage:   "Path to a YAML file overriding default message templates",
				Value:   "",
				Sources: cli.EnvVars("MESSAGE_TEMPLATES_PATH"),
			},
			&cli.StringFlag{
				Name:    "escalation-cron",
				Usage:   "Cron spec for the overdue complaint scan (empty disables it)",
				Value:   "",
				Sources: cli.EnvVars("ESCALATION_CRON"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("complaintflow-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing Complaintflow Worker")

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			var locker *runlock.Locker

			if redisURL := command.String("redis-url"); redisURL != "" {
				opts, err := redis.ParseURL(redisURL)
				if err != nil {
					return err
				}

				locker = runlock.New(redis.NewClient(opts), 5*time.Minute)
			}

			templates := template.BuiltinDefaults()

			if path := command.String("templates-path"); path != "" {
				loaded, err := template.LoadDefaults(path)
				if err != nil {
					return err
				}

				templates = loaded
			}

			senders := NewSenders(
				logger,
				command.String("gateway-url"),
				command.String("gateway-api-key"),
			)

			if spec := command.String("escalation-cron"); spec != "" {
				scheduler := escalation.NewScheduler(persistence, eventBus, logger)
				if err := scheduler.Start(ctx, spec); err != nil {
					return err
				}
				defer scheduler.Stop()
			}

			var tracer trace.Tracer

			if os.Getenv("OTEL_ENABLED") == "true" {
				t, err := otelhelper.NewTracer(ctx, "complaintflow-worker")
				if err != nil {
					return err
				}

				tracer = t
			}

			worker := NewWorkerManager(
				workerID,
				persistence,
				eventBus,
				locker,
				senders,
				templates,
				tracer,
				logger,
			)

			err := worker.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start event-driven worker", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
