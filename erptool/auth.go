package erptool

import (
	"time"

	"github.com/oygul/asil/core"
	"github.com/oygul/asil/tool"
)

// refreshToken renews the session's token pair. The new tokens are staged
// on the tool context and merged into the session with the tool's response
// event.
func (s *Suite) refreshToken() tool.Tool {
	const name = "refresh_token"

	return tool.NewTypedTool(name,
		"Renew the session's access token. Call when another tool fails with error_code token_expired, then retry that call.",
		func(tc *core.ToolContext, _ noArgs) (any, error) {
			start := time.Now()
			res, apiErr := s.client.RefreshToken(tc.Context(), core.StateString(tc, core.StateRefreshToken))
			s.metrics.ObserveTool(name, apiErr != nil, time.Since(start))

			if apiErr != nil {
				tc.Logger().Warn("erptool.refresh.failed", "error_code", apiErr.Code)
				return apiErr.Record(), nil
			}

			tc.SetState(core.StateBearerToken, res.BearerToken)
			tc.SetState(core.StateRefreshToken, res.RefreshToken)
			tc.Logger().Info("erptool.refresh.succeeded", "user_id", core.StateString(tc, core.StateUserID))

			return map[string]any{"status": "success", "message": "Token refreshed."}, nil
		})
}
