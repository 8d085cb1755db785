package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/squadchat/pkg/domain"
)

// LogHooks logs every lifecycle event at info level (failures at warn).
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_enter", "session_id", e.SessionID, "node_id", e.NodeID.String())
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "node_leave",
					"session_id", e.SessionID,
					"node_id", e.NodeID.String(),
					"duration", e.Duration,
					"err", e.Err,
				)
				return
			}
			logger.InfoContext(ctx, "node_leave",
				"session_id", e.SessionID,
				"node_id", e.NodeID.String(),
				"outcome", string(e.Outcome),
				"duration", e.Duration,
			)
		},
		OnSuspend: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "suspend", "session_id", e.SessionID, "node_id", e.NodeID.String())
		},
		OnFinish: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "finish", "session_id", e.SessionID, "outcome", string(e.Outcome))
		},
	}
}
