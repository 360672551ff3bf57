// Package config loads the INI-like key/value configuration file
// spec.md §6's `configure_context_from_file(ctx, path)` ABI call
// reads, via github.com/spf13/viper the same way the teacher's
// pkg/logger.New() reads LOG_LEVEL/LOG_TIME_FORMAT through viper
// defaults -- generalized here from two ad hoc keys to the full set
// SPEC_FULL.md §2 names for this implementation.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/coarsening"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/metrics"
)

// Config bundles every knob SPEC_FULL.md §2's ambient-stack section
// names for this file format.
type Config struct {
	ContractionLimit  int
	MinShrinkFactor   float64
	MaxFruitlessMoves int
	Objective         metrics.Objective
	RatingFunction    coarsening.RatingVariant
	HeavyNodePenalty  float64
	FlowEnabled       bool
	LPEnabled         bool
	FMEnabled         bool
	Seed              uint64
	LogLevel          string
}

// Defaults mirrors the key defaults pkg/multilevel.Config.withDefaults
// falls back to when a caller leaves a Config field at its zero value,
// so a missing config file still produces a runnable configuration.
// MaxFruitlessMoves (50) is higher than the 10 pkg/refinement/fm.Run
// falls back to.
func Defaults() Config {
	return Config{
		ContractionLimit:  160,
		MinShrinkFactor:   1.01,
		MaxFruitlessMoves: 50,
		Objective:         metrics.Km1,
		RatingFunction:    coarsening.HeavyEdgeRating,
		HeavyNodePenalty:  2.0,
		FlowEnabled:       true,
		LPEnabled:         true,
		FMEnabled:         true,
		Seed:              1,
		LogLevel:          "info",
	}
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("contraction-limit", d.ContractionLimit)
	v.SetDefault("min-shrink-factor", d.MinShrinkFactor)
	v.SetDefault("max-fruitless-moves", d.MaxFruitlessMoves)
	v.SetDefault("objective", objectiveString(d.Objective))
	v.SetDefault("rating-function", ratingString(d.RatingFunction))
	v.SetDefault("heavy-node-penalty", d.HeavyNodePenalty)
	v.SetDefault("flow-enabled", d.FlowEnabled)
	v.SetDefault("lp-enabled", d.LPEnabled)
	v.SetDefault("fm-enabled", d.FMEnabled)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("log-level", d.LogLevel)
}

// LoadFile reads path (any format viper's decoders understand; the
// ambient stack settles on YAML, matching the teacher's own indirect
// gopkg.in/yaml.v3 dependency) and returns the resulting Config,
// falling back to Defaults() for any key the file omits.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	obj, err := parseObjective(v.GetString("objective"))
	if err != nil {
		return Config{}, err
	}
	rating, err := parseRating(v.GetString("rating-function"))
	if err != nil {
		return Config{}, err
	}
	return Config{
		ContractionLimit:  v.GetInt("contraction-limit"),
		MinShrinkFactor:   v.GetFloat64("min-shrink-factor"),
		MaxFruitlessMoves: v.GetInt("max-fruitless-moves"),
		Objective:         obj,
		RatingFunction:    rating,
		HeavyNodePenalty:  v.GetFloat64("heavy-node-penalty"),
		FlowEnabled:       v.GetBool("flow-enabled"),
		LPEnabled:         v.GetBool("lp-enabled"),
		FMEnabled:         v.GetBool("fm-enabled"),
		Seed:              v.GetUint64("seed"),
		LogLevel:          v.GetString("log-level"),
	}, nil
}

func parseObjective(s string) (metrics.Objective, error) {
	switch s {
	case "", "km1":
		return metrics.Km1, nil
	case "cut":
		return metrics.Cut, nil
	default:
		return 0, fmt.Errorf("config: unknown objective %q", s)
	}
}

func objectiveString(o metrics.Objective) string {
	if o == metrics.Cut {
		return "cut"
	}
	return "km1"
}

func parseRating(s string) (coarsening.RatingVariant, error) {
	switch s {
	case "", "heavy-edge":
		return coarsening.HeavyEdgeRating, nil
	case "average":
		return coarsening.AverageRating, nil
	default:
		return 0, fmt.Errorf("config: unknown rating-function %q", s)
	}
}

func ratingString(r coarsening.RatingVariant) string {
	if r == coarsening.AverageRating {
		return "average"
	}
	return "heavy-edge"
}
