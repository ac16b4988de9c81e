package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/lexflow/lexflow/pkg/cmd"
	"github.com/lexflow/lexflow/pkg/config"
	"github.com/lexflow/lexflow/pkg/gateway"
	"github.com/lexflow/lexflow/pkg/log"
	"github.com/lexflow/lexflow/pkg/protocol"
	"github.com/lexflow/lexflow/pkg/triggers/queue"
	"github.com/lexflow/lexflow/pkg/triggers/schedule"
	"github.com/lexflow/lexflow/pkg/triggers/webhook"
)

func main() {
	command := &cli.Command{
		Name:                  "lexflow-trigger",
		EnableShellCompletion: true,
		Usage:                 "Start trigger sources that feed external events into workflows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "event-bus",
				Usage:    "Event bus provider (gochannel, kafka)",
				Required: true,
				Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a YAML file declaring trigger sources",
				Sources: cli.EnvVars("TRIGGER_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address for the queue trigger source",
				Value:   "localhost:6379",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password for the queue trigger source",
				Sources: cli.EnvVars("REDIS_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "queue",
				Usage:   "Queue (Redis list) to consume trigger messages from",
				Sources: cli.EnvVars("TRIGGER_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "queue-event",
				Usage:   "Trigger event emitted for queue messages without one",
				Sources: cli.EnvVars("TRIGGER_QUEUE_EVENT"),
			},
			&cli.StringFlag{
				Name:    "cron",
				Usage:   "Cron expression for the schedule trigger source",
				Sources: cli.EnvVars("TRIGGER_CRON"),
			},
			&cli.StringFlag{
				Name:    "cron-event",
				Usage:   "Trigger event emitted on every cron tick",
				Sources: cli.EnvVars("TRIGGER_CRON_EVENT"),
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

			managerID := "trigger-" + uuid.New().String()[:8]
			logger := log.WithModule("lexflow-trigger").With("trigger_manager_id", managerID)

			logger.InfoContext(ctx, "Initializing Lexflow Trigger Service")

			persistence := cmd.MustNewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), "lexflow-trigger", logger)
			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			sources, err := buildSources(command, logger)
			if err != nil {
				return err
			}

			if len(sources) == 0 {
				logger.WarnContext(ctx, "No trigger sources configured, exiting")

				return nil
			}

			triggerGateway := gateway.NewGateway(logger, persistence, eventBus)
			manager := NewTriggerManager(managerID, triggerGateway, sources, logger)

			err = manager.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start trigger service", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func buildSources(command *cli.Command, logger *slog.Logger) ([]protocol.TriggerSource, error) {
	var sources []protocol.TriggerSource

	if configPath := command.String("config"); configPath != "" {
		configFile, err := config.LoadTriggerConfig(configPath)
		if err != nil {
			return nil, err
		}

		for _, sourceConfig := range configFile.Sources {
			source, err := buildSource(sourceConfig, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to build trigger source %q: %w", sourceConfig.Name, err)
			}

			sources = append(sources, source)
		}
	}

	if queueName := command.String("queue"); queueName != "" {
		queueTrigger, err := queue.NewTrigger(map[string]any{
			"queue":         queueName,
			"trigger_event": command.String("queue-event"),
			"addr":          command.String("redis-addr"),
			"password":      command.String("redis-password"),
		}, logger)
		if err != nil {
			return nil, err
		}

		sources = append(sources, queueTrigger)
	}

	if cronExpr := command.String("cron"); cronExpr != "" {
		scheduleTrigger, err := schedule.NewTrigger(map[string]any{
			"id":            "schedule-" + uuid.New().String()[:8],
			"cron":          cronExpr,
			"trigger_event": command.String("cron-event"),
		}, logger)
		if err != nil {
			return nil, err
		}

		sources = append(sources, scheduleTrigger)
	}

	return sources, nil
}

func buildSource(sourceConfig config.SourceConfig, logger *slog.Logger) (protocol.TriggerSource, error) {
	switch sourceConfig.Type {
	case "queue":
		return queue.NewTrigger(sourceConfig.Configuration, logger)
	case "schedule":
		return schedule.NewTrigger(sourceConfig.Configuration, logger)
	case "webhook":
		return webhook.NewTrigger(sourceConfig.Configuration, logger)
	default:
		return nil, fmt.Errorf("unknown trigger source type %q", sourceConfig.Type)
	}
}
