package httpapi

import (
	"context"
	"sync/atomic"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/domain"
	"leadscout-engine/internal/enrich"
	"leadscout-engine/internal/events"
	"leadscout-engine/internal/poll"
	"leadscout-engine/internal/scrape/types"
)

// LeadStore is the read side of the store plus operator triage.
type LeadStore interface {
	ListLeads(ctx context.Context, includeStale bool) ([]domain.Lead, error)
	GetLead(ctx context.Context, id string) (*domain.Lead, error)
	SetStatus(ctx context.Context, id string, status domain.Status) error
	CountByStatus(ctx context.Context) (map[domain.Status]int, error)
}

// Pipeline is what the API needs from the run orchestrator.
type Pipeline interface {
	Trigger(mode string) (string, error)
	Status() types.Status
	LatestSummary(ctx context.Context) (*poll.RunSummary, error)
}

type Deps struct {
	Store    LeadStore
	Pipeline Pipeline
	Hub      *events.Hub

	// Enrichment results are cached next to the leads.
	EnrichCache enrich.Cache

	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// SetSecret defaults to secrets.Set.
	SetSecret func(cfg config.Config, name, value string) error

	// AllowedOrigins for CORS; empty means the desktop shell and localhost.
	AllowedOrigins []string
}

func (d Deps) config() config.Config {
	if d.CfgVal != nil {
		if cfg, ok := d.CfgVal.Load().(config.Config); ok {
			return cfg
		}
	}
	return config.Default()
}
