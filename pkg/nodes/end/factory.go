package end

import (
	"context"

	"github.com/lexflow/lexflow/pkg/models"
	"github.com/lexflow/lexflow/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Type() models.NodeType {
	return models.NodeTypeEnd
}

func (f *Factory) Create(_ context.Context) (protocol.NodeExecutor, error) {
	return NewExecutor(), nil
}

// ConfigSchema returns nil: end nodes carry no configuration.
func (f *Factory) ConfigSchema() map[string]any {
	return nil
}
