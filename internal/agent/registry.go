package agent

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/polyedge/polyedge/models"
)

// Registry routes markets to agents. It is constructed explicitly and
// injected; there is no process-wide instance.
type Registry struct {
	agents []*Agent
	logger zerolog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: log.With().Str("component", "agent_registry").Logger(),
	}
}

// Register appends an agent. Registration order is the tie-break for
// routing, so register the most specific agents first.
func (r *Registry) Register(a *Agent) {
	r.agents = append(r.agents, a)
	r.logger.Info().Str("agent", a.Name()).Msg("Agent registered")
}

// AgentFor returns the first registered agent matching the market, or
// nil. First-match-wins is the documented routing policy: keyword sets
// are designed to be near-disjoint, and ties resolve by registration
// order.
func (r *Registry) AgentFor(m models.Market) *Agent {
	for _, a := range r.agents {
		if a.MatchesCategory(m) {
			return a
		}
	}
	return nil
}

// MatchingAgents returns every agent matching the market, in
// registration order, for callers needing multi-label behavior.
func (r *Registry) MatchingAgents(m models.Market) []*Agent {
	var matched []*Agent
	for _, a := range r.agents {
		if a.MatchesCategory(m) {
			matched = append(matched, a)
		}
	}
	return matched
}

// Agents returns all registered agents in registration order.
func (r *Registry) Agents() []*Agent {
	return r.agents
}

// Describe summarizes every registered agent.
func (r *Registry) Describe() []models.AgentDescription {
	descs := make([]models.AgentDescription, 0, len(r.agents))
	for _, a := range r.agents {
		descs = append(descs, a.Describe())
	}
	return descs
}

// Close stops all agents' background sweepers.
func (r *Registry) Close() {
	for _, a := range r.agents {
		a.Close()
	}
}
