// Package compiler orchestrates one scenario build: validate the
// specification, resolve every symbolic reference, instantiate traffic, and
// commit the artifact set under the scenario's fingerprint. A compile either
// commits a complete set or leaves the previous one untouched.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/scenc/scenc/internal/emitter"
	"github.com/scenc/scenc/internal/fingerprint"
	"github.com/scenc/scenc/internal/flow"
	"github.com/scenc/scenc/internal/history"
	"github.com/scenc/scenc/internal/influx"
	"github.com/scenc/scenc/internal/model"
	"github.com/scenc/scenc/internal/network"
	"github.com/scenc/scenc/internal/resolver"
	"github.com/scenc/scenc/pkg/scenario"
)

// DefaultLanepointSpacing is used when a MapSpec leaves the sampling
// resolution unset.
const DefaultLanepointSpacing = 1.0

// Dependencies holds everything a Service needs. History and Metrics are
// optional.
type Dependencies struct {
	Log     *slog.Logger
	History *history.Store
	Metrics *influx.Manager
}

// Result summarizes one compile call.
type Result struct {
	Fingerprint string
	CacheHit    bool
	Missions    int
	Variants    int
	Spawns      int
	Duration    time.Duration
}

// Service compiles scenarios.
type Service struct {
	deps Dependencies
}

// NewService creates a compiler service.
func NewService(deps Dependencies) *Service {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Service{deps: deps}
}

// Compile builds the artifact set for a scenario under outputDir, creating
// the directory if absent. An unchanged specification against an
// already-compiled directory performs no writes. The whole
// purge-emit-commit sequence runs under the build directory's advisory
// lock, and purging only happens after the new specification has fully
// resolved, so a failed compile leaves the previous artifacts valid.
func (s *Service) Compile(ctx context.Context, sc *scenario.Scenario, outputDir string) (*Result, error) {
	start := time.Now()
	log := s.deps.Log.With("scenario", sc.Name, "outputDir", outputDir)

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating output dir: %w", err)
	}

	fp, err := fingerprint.Compute(sc)
	if err != nil {
		return nil, err
	}
	log = log.With("fingerprint", fp)

	netPath, err := network.ResolveSource(sc.Map.Source)
	if err != nil {
		return nil, err
	}
	net, err := network.Load(netPath, sc.Map.ShiftToOrigin)
	if err != nil {
		return nil, err
	}

	spacing := sc.Map.LanepointSpacing
	if spacing == 0 {
		spacing = DefaultLanepointSpacing
	}
	log.Debug("Network loaded",
		"edges", len(net.DrivableEdges()),
		"lanepoints", countLanepoints(net, spacing))

	// Resolve and instantiate before touching the build directory: a
	// malformed scenario must fail here, with the old artifacts intact.
	art, err := s.build(sc, net, fp, spacing)
	if err != nil {
		return nil, err
	}

	lock, err := emitter.Lock(outputDir)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	res := &Result{
		Fingerprint: fp,
		Missions:    len(art.Missions),
		Variants:    len(art.Traffic),
		Spawns:      countSpawns(art),
	}
	if prev, ok := emitter.ReadFingerprint(outputDir); ok && prev == fp {
		res.CacheHit = true
		res.Duration = time.Since(start)
		log.Info("Fingerprint unchanged, reusing artifacts")
		s.report(ctx, sc, outputDir, res)
		return res, nil
	}

	em := emitter.New(log)
	if err := em.Purge(outputDir); err != nil {
		return nil, err
	}
	if err := em.Emit(outputDir, art); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	log.Info("Scenario compiled",
		"missions", res.Missions,
		"variants", res.Variants,
		"spawns", res.Spawns,
		"duration", res.Duration)
	s.report(ctx, sc, outputDir, res)
	return res, nil
}

// Clean removes the build directory under the scenario lock. The lock file
// is unlinked while still held, so a concurrent Compile either finishes
// before the removal or starts against a fresh directory.
func (s *Service) Clean(outputDir string) error {
	lock, err := emitter.Lock(outputDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	if err := os.RemoveAll(emitter.BuildDir(outputDir)); err != nil {
		return fmt.Errorf("error removing build dir: %w", err)
	}
	s.deps.Log.Info("Cleaned scenario build dir", "outputDir", outputDir)
	return nil
}

// build resolves missions and instantiates traffic into a complete
// artifact set.
func (s *Service) build(sc *scenario.Scenario, net *network.Network, fp string, spacing float64) (*model.Artifacts, error) {
	art := &model.Artifacts{
		Fingerprint: fp,
		Map: model.MapReference{
			Source:           sc.Map.Source,
			ShiftToOrigin:    sc.Map.ShiftToOrigin,
			LanepointSpacing: spacing,
		},
	}

	res := resolver.New(net)
	for i, m := range sc.Missions {
		cm, err := res.Mission(m)
		if err != nil {
			return nil, fmt.Errorf("mission %d: %w", i, err)
		}
		art.Missions = append(art.Missions, cm)
	}

	inst := flow.NewInstantiator(net, sc.Seed)
	for _, name := range sc.TrafficNames() {
		ct, err := inst.Traffic(name, sc.Traffic[name])
		if err != nil {
			return nil, fmt.Errorf("traffic %q: %w", name, err)
		}
		art.Traffic = append(art.Traffic, ct)
	}
	return art, nil
}

func (s *Service) report(ctx context.Context, sc *scenario.Scenario, outputDir string, res *Result) {
	if s.deps.History != nil {
		err := s.deps.History.Record(ctx, &history.Build{
			OutputDir:   outputDir,
			Fingerprint: res.Fingerprint,
			Seed:        sc.Seed,
			Missions:    res.Missions,
			Variants:    res.Variants,
			Spawns:      res.Spawns,
			CacheHit:    res.CacheHit,
			Duration:    res.Duration,
		})
		if err != nil {
			s.deps.Log.Warn("Failed to record build history", "error", err)
		}
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.WriteCompileStats(sc.Name, res.Fingerprint, res.CacheHit,
			res.Variants, res.Spawns, res.Duration)
	}
}

func countSpawns(art *model.Artifacts) int {
	total := 0
	for _, t := range art.Traffic {
		total += len(t.Spawns)
	}
	return total
}

// countLanepoints totals the centerline sample points across every drivable
// lane at the scenario's sampling resolution.
func countLanepoints(net *network.Network, spacing float64) int {
	total := 0
	for _, id := range net.DrivableEdges() {
		e, err := net.Edge(id)
		if err != nil {
			continue
		}
		for i := range e.Lanes {
			total += len(network.Lanepoints(&e.Lanes[i], spacing))
		}
	}
	return total
}
