package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/ports"
)

// Export writes every squad of provider to w in the format LoadLocal reads.
// Teams that fail to load are logged and left out; the count of exported teams is returned.
func Export(ctx context.Context, provider ports.RosterProvider, w io.Writer, logger *slog.Logger) (int, error) {
	teams, err := provider.ListTeams(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list teams: %w", err)
	}
	logger.InfoContext(ctx, "fetching squads", "teams", len(teams))

	out := make(map[string][]domain.Player, len(teams))
	for _, team := range teams {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		squad, err := provider.GetSquad(ctx, team)
		if err != nil {
			logger.ErrorContext(ctx, "failed to fetch squad", "team", team, "err", err)
			continue
		}
		logger.InfoContext(ctx, "fetched squad", "team", team, "players", len(squad.Players))
		out[team] = squad.Players
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return 0, fmt.Errorf("failed to write roster cache: %w", err)
	}
	return len(out), nil
}
