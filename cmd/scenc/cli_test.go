package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/scenc/scenc/pkg/scenario"
)

func TestApplyConfigDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("compiler.defaultSeed", 7)
	viper.Set("compiler.lanepointSpacing", 0.5)

	sc := &scenario.Scenario{}
	applyConfigDefaults(sc)
	assert.Equal(t, int64(7), sc.Seed)
	assert.Equal(t, 0.5, sc.Map.LanepointSpacing)
}

func TestApplyConfigDefaults_ScenarioValuesWin(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("compiler.defaultSeed", 7)
	viper.Set("compiler.lanepointSpacing", 0.5)

	sc := &scenario.Scenario{
		Seed: 42,
		Map:  scenario.MapSpec{LanepointSpacing: 2},
	}
	applyConfigDefaults(sc)
	assert.Equal(t, int64(42), sc.Seed)
	assert.Equal(t, 2.0, sc.Map.LanepointSpacing)
}
