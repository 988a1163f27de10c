package router

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/kbukum/executionbackup/engine"
	"github.com/kbukum/executionbackup/future"
	"github.com/kbukum/executionbackup/logger"
	"github.com/kbukum/executionbackup/node"
	"github.com/kbukum/executionbackup/observability"
)

// Defaults mirroring the proxy's historical behavior.
const (
	DefaultMajorityFraction = 0.6
	DefaultRecheckInterval  = 15 * time.Second
)

// Config configures the router.
type Config struct {
	// MajorityFraction is the fraction of fan-out responders that must
	// agree before an fcU or newPayload verdict is trusted.
	MajorityFraction float64
	// RecheckInterval is how often the background health loop runs.
	RecheckInterval time.Duration
	// NodeTimings logs per-node probe times on every recheck.
	NodeTimings bool
	// Forks is the network fork schedule for payload schema resolution.
	Forks engine.ForkConfig
	// Metrics receives routing and pool measurements. Nil disables it.
	Metrics *observability.ProxyMetrics
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.MajorityFraction <= 0 || c.MajorityFraction > 1 {
		c.MajorityFraction = DefaultMajorityFraction
	}
	if c.RecheckInterval <= 0 {
		c.RecheckInterval = DefaultRecheckInterval
	}
}

// Router routes JSON-RPC traffic across a pool of execution nodes.
type Router struct {
	cfg     Config
	log     *logger.Logger
	metrics *observability.ProxyMetrics

	mu      sync.RWMutex
	nodes   []*node.Node
	alive   []*node.Node // sorted by probe response time
	syncing []*node.Node
	dead    []*node.Node
	primary *node.Node
}

// New creates a router over the given nodes. The first node starts as
// primary until the first recheck elects one.
func New(cfg Config, nodes []*node.Node) (*Router, error) {
	if len(nodes) == 0 {
		return nil, errors.New("router: at least one node is required")
	}
	cfg.ApplyDefaults()

	return &Router{
		cfg:     cfg,
		log:     logger.GetGlobalLogger().WithComponent("router"),
		metrics: cfg.Metrics,
		nodes:   nodes,
		primary: nodes[0],
	}, nil
}

// Run rechecks immediately and then on every interval until ctx is done.
func (r *Router) Run(ctx context.Context) {
	r.Recheck(ctx)

	ticker := time.NewTicker(r.cfg.RecheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Recheck(ctx)
		}
	}
}

type probeOutcome struct {
	node   *node.Node
	health node.Health
}

// Recheck probes every node concurrently, partitions the pool by the
// outcomes, sorts alive nodes by probe time, and re-elects the primary.
func (r *Router) Recheck(ctx context.Context) {
	ctx, span := observability.StartSpan(ctx, observability.SpanNodeRecheck)
	defer span.End()

	r.mu.RLock()
	nodes := make([]*node.Node, len(r.nodes))
	copy(nodes, r.nodes)
	r.mu.RUnlock()

	probes := make([]*future.Future[probeOutcome], len(nodes))
	for i, n := range nodes {
		n := n
		probes[i] = future.Go(func() (probeOutcome, error) {
			return probeOutcome{node: n, health: n.CheckStatus(ctx)}, nil
		})
	}

	// Probes never fail, so JoinAll only returns early on ctx cancellation.
	outcomes, err := future.JoinAll(ctx, probes)
	if err != nil {
		r.log.WithError(err).Warn("recheck aborted")
		return
	}

	var alive []probeOutcome
	var syncing, dead []*node.Node
	for _, out := range outcomes {
		r.metrics.RecordProbe(ctx, out.node.URL, out.health.RespTime)
		switch out.health.Status {
		case node.StatusSynced:
			alive = append(alive, out)
			r.logTiming(out)
		case node.StatusOnlineAndSyncing:
			syncing = append(syncing, out.node)
			r.logTiming(out)
		default:
			dead = append(dead, out.node)
			if r.cfg.NodeTimings {
				r.log.Warn("dead node", logger.Fields(logger.FieldNode, out.node.URL))
			}
		}
	}

	sort.SliceStable(alive, func(a, b int) bool {
		return alive[a].health.RespTime < alive[b].health.RespTime
	})

	aliveNodes := make([]*node.Node, len(alive))
	for i, out := range alive {
		aliveNodes[i] = out.node
	}

	// Primary is the fastest synced node, falling back to a syncing one,
	// then a dead one, then the first configured node.
	var primary *node.Node
	switch {
	case len(aliveNodes) > 0:
		primary = aliveNodes[0]
	case len(syncing) > 0:
		primary = syncing[0]
	case len(dead) > 0:
		primary = dead[0]
	default:
		primary = nodes[0]
	}

	r.mu.Lock()
	r.alive = aliveNodes
	r.syncing = syncing
	r.dead = dead
	r.primary = primary
	r.mu.Unlock()

	r.metrics.RecordNodeCounts(ctx, len(aliveNodes), len(syncing), len(dead))
}

func (r *Router) logTiming(out probeOutcome) {
	if !r.cfg.NodeTimings {
		return
	}
	r.log.Info("node probe", logger.Fields(
		logger.FieldNode, out.node.URL,
		logger.FieldDuration, out.health.RespTime.Milliseconds(),
	))
}

// GetExecutionNode returns the node to serve a single-target request:
// the primary when it is synced, otherwise another alive node (which
// becomes primary), otherwise a syncing node, otherwise nil.
func (r *Router) GetExecutionNode() *node.Node {
	r.mu.RLock()
	primary := r.primary
	r.mu.RUnlock()

	if primary != nil && primary.Status() == node.StatusSynced {
		return primary
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.alive {
		if primary == nil || n.URL != primary.URL {
			r.primary = n
			return n
		}
	}
	if len(r.syncing) > 0 {
		r.primary = r.syncing[0]
		return r.syncing[0]
	}
	return nil
}

// AddNodes registers additional nodes. A recheck is needed before they
// serve traffic; the /add_nodes handler triggers one.
func (r *Router) AddNodes(nodes ...*node.Node) {
	r.mu.Lock()
	r.nodes = append(r.nodes, nodes...)
	r.mu.Unlock()

	r.log.Info("nodes added", logger.Fields("count", len(nodes)))
}

// aliveSnapshot returns the current alive set.
func (r *Router) aliveSnapshot() []*node.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*node.Node, len(r.alive))
	copy(out, r.alive)
	return out
}

// syncingSnapshot returns the current alive-but-syncing set.
func (r *Router) syncingSnapshot() []*node.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*node.Node, len(r.syncing))
	copy(out, r.syncing)
	return out
}
