package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/viper"

	"github.com/scenc/scenc/internal/fingerprint"
	"github.com/scenc/scenc/internal/network"
	"github.com/scenc/scenc/pkg/scenario"
)

// applyConfigDefaults fills in compile parameters the scenario file leaves
// unset from the config's compiler.* keys.
func applyConfigDefaults(sc *scenario.Scenario) {
	if sc.Seed == 0 {
		sc.Seed = int64(viper.GetInt("compiler.defaultSeed"))
	}
	if sc.Map.LanepointSpacing == 0 {
		sc.Map.LanepointSpacing = viper.GetFloat64("compiler.lanepointSpacing")
	}
}

func runCompile(scenarioPath, outputDir string) error {
	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		return err
	}
	applyConfigDefaults(sc)
	currentScenario = sc.Name

	res, err := compilerService().Compile(context.Background(), sc, outputDir)
	if err != nil {
		return err
	}
	currentFingerprint = res.Fingerprint

	if res.CacheHit {
		fmt.Printf("%s: up to date (fingerprint %s)\n", sc.Name, res.Fingerprint)
	} else {
		fmt.Printf("%s: compiled %d missions, %d traffic variants, %d spawns in %s (fingerprint %s)\n",
			sc.Name, res.Missions, res.Variants, res.Spawns, res.Duration, res.Fingerprint)
	}
	return nil
}

func runClean(outputDir string) error {
	if err := compilerService().Clean(outputDir); err != nil {
		return err
	}
	fmt.Printf("cleaned %s\n", outputDir)
	return nil
}

func runFingerprint(scenarioPath string) error {
	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		return err
	}
	applyConfigDefaults(sc)
	fp, err := fingerprint.Compute(sc)
	if err != nil {
		return err
	}
	fmt.Println(fp)
	return nil
}

// runLocate maps a GPS coordinate onto the scenario's network: project it
// into net-local meters through the map's geodetic reference, then snap it
// to the closest drivable lane.
func runLocate(scenarioPath, lonArg, latArg string) error {
	lon, err := strconv.ParseFloat(lonArg, 64)
	if err != nil {
		return fmt.Errorf("invalid longitude %q", lonArg)
	}
	lat, err := strconv.ParseFloat(latArg, 64)
	if err != nil {
		return fmt.Errorf("invalid latitude %q", latArg)
	}

	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		return err
	}
	netPath, err := network.ResolveSource(sc.Map.Source)
	if err != nil {
		return err
	}
	net, err := network.Load(netPath, sc.Map.ShiftToOrigin)
	if err != nil {
		return err
	}

	geo := net.Geo()
	if geo == nil {
		return fmt.Errorf("map %s declares no geodetic reference", sc.Map.Source)
	}
	x, y := geo.ToLocal(lon, lat)
	edge, lane, offset, ok := net.NearestLane(x, y)
	if !ok {
		return fmt.Errorf("network has no drivable lanes")
	}
	fmt.Printf("local (%.2f, %.2f) -> edge %s lane %d offset %.2f\n", x, y, edge, lane, offset)
	return nil
}

func runHistory(args []string) error {
	if HistoryStore == nil {
		return fmt.Errorf("build history is disabled (history.enabled is false)")
	}

	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid history limit %q", args[0])
		}
		limit = n
	}

	builds, err := HistoryStore.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(builds) == 0 {
		fmt.Println("no recorded builds")
		return nil
	}
	for _, b := range builds {
		status := "built"
		if b.CacheHit {
			status = "cached"
		}
		fmt.Printf("%s  %s  %s  missions=%d variants=%d spawns=%d  %s  %s\n",
			b.CreatedAt.Format("2006-01-02 15:04:05"),
			b.Fingerprint, status,
			b.Missions, b.Variants, b.Spawns,
			b.Duration, b.OutputDir)
	}
	return nil
}
