package cmd

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/KaramelBytes/dqagent/internal/agent"
	"github.com/KaramelBytes/dqagent/internal/ai"
	cfgpkg "github.com/KaramelBytes/dqagent/internal/config"
	"github.com/KaramelBytes/dqagent/internal/dataset"
	"github.com/KaramelBytes/dqagent/internal/logging"
	"github.com/KaramelBytes/dqagent/internal/metrics"
	"github.com/KaramelBytes/dqagent/internal/tools"
)

// app is the wired object graph shared by serve, mcp, query and invoke.
type app struct {
	cfg      *cfgpkg.Global
	promReg  *prometheus.Registry
	registry *tools.Registry
	agent    *agent.Orchestrator
}

// newApp wires the store, registry, language model and orchestrator from c.
// dataPath, when set, is loaded before returning and overrides data_path.
func newApp(c *cfgpkg.Global, dataPath string) (*app, error) {
	log := logging.New("cli")
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store := dataset.NewStore(dataset.Options{Sheet: c.XLSXSheet, ParseDates: c.ParseDates})
	registry := tools.NewRegistry(store, m)

	llm, err := ai.NewCompleter(c.Provider, c.Model, c.Temperature, ai.RuntimeConfig{
		HTTPTimeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		RetryMax:    c.RetryMaxAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Host:        c.OllamaHost,
	})
	if err != nil {
		return nil, err
	}
	if llm == nil {
		log.Info("no language model configured, using keyword routing and templates")
	}

	orch := agent.New(registry, llm, m, agent.Options{
		AnalyzeMaxTokens:    c.AnalyzeMaxTokens,
		SynthesizeMaxTokens: c.SynthesizeMaxTokens,
		LLMTimeout:          c.LLMTimeout(),
		BreakerFailures:     uint32(c.BreakerFailures),
		BreakerCooldown:     c.BreakerCooldown(),
	})

	path := dataPath
	if path == "" {
		path = c.DataPath
	}
	if path != "" {
		if _, err := registry.Load(path); err != nil {
			if dataPath != "" {
				return nil, err
			}
			// A stale data_path in config should not keep the process from starting.
			log.Warn("default dataset not loaded", "path", path, "error", err)
		}
	}
	return &app{cfg: c, promReg: reg, registry: registry, agent: orch}, nil
}
