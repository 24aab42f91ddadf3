// internal/notify/notify.go
package notify

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiqa-cli/api/schemas"
)

// Prefix marks notifier output in logs.
const Prefix = "[MCP-NOTIFY]"

// LogNotifier writes messages to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

var _ schemas.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) Notify(_ context.Context, message string) error {
	n.logger.Info(Prefix + " " + message)
	return nil
}

// Broadcaster is the part of an MCP server used to push notifications.
type Broadcaster interface {
	SendNotificationToAllClients(method string, params map[string]any)
}

var _ Broadcaster = (*server.MCPServer)(nil)

// MCPNotifier broadcasts messages to every connected MCP client as a
// notifications/message log event.
type MCPNotifier struct {
	srv    Broadcaster
	source string
}

var _ schemas.Notifier = (*MCPNotifier)(nil)

// NewMCPNotifier creates a notifier that reports as source ("logger" in the
// MCP payload).
func NewMCPNotifier(srv Broadcaster, source string) *MCPNotifier {
	return &MCPNotifier{srv: srv, source: source}
}

func (n *MCPNotifier) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.srv.SendNotificationToAllClients("notifications/message", map[string]any{
		"level":  "info",
		"logger": n.source,
		"data":   message,
	})
	return nil
}

// Multi fans a message out to several notifiers. Every notifier is tried and
// the errors are joined.
type Multi []schemas.Notifier

func (m Multi) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
