// Package cmd provides common initialization functions for the lexflow
// binaries.
package cmd

import (
	"log/slog"

	"github.com/lexflow/lexflow/pkg/capabilities/httpcall"
	logdispatcher "github.com/lexflow/lexflow/pkg/dispatchers/log"
	"github.com/lexflow/lexflow/pkg/dispatchers/webhook"
	"github.com/lexflow/lexflow/pkg/nodes/decision"
	"github.com/lexflow/lexflow/pkg/nodes/end"
	"github.com/lexflow/lexflow/pkg/nodes/notification"
	"github.com/lexflow/lexflow/pkg/nodes/process"
	"github.com/lexflow/lexflow/pkg/nodes/start"
	"github.com/lexflow/lexflow/pkg/protocol"
	"github.com/lexflow/lexflow/pkg/registry"
)

// NewRegistry wires every engine node type plus the native capabilities.
// webhookEndpoint selects the notification transport: empty means
// notifications go to the structured log.
func NewRegistry(logger *slog.Logger, webhookEndpoint string) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterExecutor(start.NewFactory())
	reg.RegisterExecutor(process.NewFactory(reg))
	reg.RegisterExecutor(decision.NewFactory())
	reg.RegisterExecutor(notification.NewFactory(newDispatcher(logger, webhookEndpoint)))
	reg.RegisterExecutor(end.NewFactory())

	reg.RegisterCapability(httpcall.NewCapability(logger))

	return reg
}

func newDispatcher(logger *slog.Logger, webhookEndpoint string) protocol.Dispatcher {
	if webhookEndpoint != "" {
		return webhook.NewDispatcher(webhookEndpoint, logger)
	}

	return logdispatcher.NewDispatcher(logger)
}
