package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JamesBuckley3/supply-chain-simulator/sim"
	"github.com/JamesBuckley3/supply-chain-simulator/sim/seedgen"
)

// Scenario bundles everything a run is parameterized by: the engine
// configuration and the shape of the generated catalog. A scenario YAML file
// overlays the defaults; omitted keys keep their default values.
type Scenario struct {
	Simulation sim.Config     `yaml:"simulation"`
	Catalog    seedgen.Config `yaml:"catalog"`
}

// DefaultScenario returns the reference scenario.
func DefaultScenario() Scenario {
	return Scenario{
		Simulation: sim.DefaultConfig(),
		Catalog:    seedgen.DefaultConfig(),
	}
}

// LoadScenario reads a scenario file over the defaults. An empty path returns
// the defaults unchanged.
func LoadScenario(path string) (Scenario, error) {
	sc := DefaultScenario()
	if path == "" {
		return sc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("read scenario file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("parse scenario file %s: %w", path, err)
	}
	return sc, nil
}
