// Package ops implements the engine's operations. Each operation is a
// plain function over an Env; transports (MCP, CLI) only decode input,
// call the operation, and encode output.
package ops

import (
	"strings"

	"go.uber.org/zap"

	"github.com/pithworks/pith/internal/config"
	"github.com/pithworks/pith/internal/errors"
	"github.com/pithworks/pith/internal/learn"
	"github.com/pithworks/pith/internal/store"
)

// Env bundles the dependencies every operation needs.
type Env struct {
	Store store.Store
	Cfg   *config.Config
	Log   *zap.Logger
}

// NewEnv creates an operation environment. A nil logger is replaced with
// a no-op logger.
func NewEnv(st store.Store, cfg *config.Config, log *zap.Logger) *Env {
	if log == nil {
		log = zap.NewNop()
	}
	return &Env{Store: st, Cfg: cfg, Log: log}
}

// learner builds the learner for this environment.
func (e *Env) learner() *learn.Learner {
	return learn.New(e.Store, e.Cfg.LearningRate)
}

// requireAgentID validates and normalizes a required agent id.
func requireAgentID(agentID string) (string, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return "", errors.NewInvalidRequest("agent_id is required")
	}
	return agentID, nil
}

// validTimeframe reports whether tf is an accepted stats timeframe.
func validTimeframe(tf string) bool {
	switch tf {
	case store.TimeframeDay, store.TimeframeWeek, store.TimeframeMonth, store.TimeframeAll:
		return true
	}
	return false
}
