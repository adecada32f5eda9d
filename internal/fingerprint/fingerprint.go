// Package fingerprint derives the stable identity of a scenario
// specification. Two specifications share a fingerprint exactly when they
// would compile to identical artifacts: same map content, same missions,
// same traffic, same seed and generation parameters.
package fingerprint

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/scenc/scenc/internal/network"
	"github.com/scenc/scenc/pkg/scenario"
)

// Compute hashes the canonical JSON of the specification plus the content
// of the map source file. Hashing map content rather than its path means
// relocating a scenario directory keeps the cache valid while editing the
// map invalidates it.
func Compute(s *scenario.Scenario) (string, error) {
	d := xxhash.New()

	spec, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("error serializing scenario for fingerprint: %w", err)
	}
	if _, err := d.Write(spec); err != nil {
		return "", err
	}

	netPath, err := network.ResolveSource(s.Map.Source)
	if err != nil {
		return "", err
	}
	f, err := os.Open(netPath)
	if err != nil {
		return "", fmt.Errorf("error reading map source for fingerprint: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(d, f); err != nil {
		return "", fmt.Errorf("error hashing map source: %w", err)
	}

	return fmt.Sprintf("%016x", d.Sum64()), nil
}
