package api

import (
	"go.uber.org/zap"

	"github.com/soaringjerry/Kivu/internal/services"
)

// logNotifier emits notifications as structured log events. Delivery over
// email or websockets can hang off the same interface later.
type logNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a Notifier backed by the given logger.
func NewLogNotifier(logger *zap.Logger) services.Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Notify(userID, event, title, message string) {
	n.logger.Info("notification",
		zap.String("user_id", userID),
		zap.String("event", event),
		zap.String("title", title),
		zap.String("message", message),
	)
}
