package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/lexflow/lexflow/pkg/gateway"
	"github.com/lexflow/lexflow/pkg/protocol"
)

// TriggerManager hosts trigger sources and routes the events they emit to
// the gateway, which starts an instance for every workflow that registers
// the event.
type TriggerManager struct {
	id      string
	gateway *gateway.Gateway
	sources []protocol.TriggerSource
	logger  *slog.Logger
}

func NewTriggerManager(
	id string,
	gateway *gateway.Gateway,
	sources []protocol.TriggerSource,
	logger *slog.Logger,
) *TriggerManager {
	return &TriggerManager{
		id:      id,
		gateway: gateway,
		sources: sources,
		logger:  logger.With("module", "trigger_manager", "trigger_manager_id", id),
	}
}

// Start runs every source until an interrupt arrives, then stops them all.
func (tm *TriggerManager) Start(ctx context.Context) error {
	tm.logger.InfoContext(ctx, "Starting trigger service", "sources", len(tm.sources))

	for _, source := range tm.sources {
		err := source.Start(ctx, tm.dispatch)
		if err != nil {
			tm.stopAll(ctx)

			return err
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	tm.logger.InfoContext(ctx, "Shutting down trigger service...")
	tm.stopAll(ctx)

	return nil
}

func (tm *TriggerManager) dispatch(ctx context.Context, triggerEvent string, payload map[string]any) error {
	instances, err := tm.gateway.TriggerAll(ctx, triggerEvent, payload)
	if err != nil {
		tm.logger.ErrorContext(ctx, "Failed to dispatch trigger event",
			"trigger_event", triggerEvent, "error", err)

		return err
	}

	tm.logger.InfoContext(ctx, "Dispatched trigger event",
		"trigger_event", triggerEvent, "instances", len(instances))

	return nil
}

func (tm *TriggerManager) stopAll(ctx context.Context) {
	var wg sync.WaitGroup

	for _, source := range tm.sources {
		wg.Add(1)

		go func(source protocol.TriggerSource) {
			defer wg.Done()

			if err := source.Stop(ctx); err != nil {
				tm.logger.ErrorContext(ctx, "Failed to stop trigger source", "error", err)
			}
		}(source)
	}

	wg.Wait()
}
