// Package rules holds the static health condition catalog and age-group
// targets that drive schedule synthesis.
package rules

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// FallbackKey is returned when no condition key matches.
const FallbackKey = "general"

// Age group names.
const (
	GroupYoung  = "young"
	GroupAdult  = "adult"
	GroupSenior = "senior"
)

// RuleSet bundles the recommendations for one health condition.
type RuleSet struct {
	Key      string   `yaml:"key"`
	Priority string   `yaml:"priority"`
	Exercise []string `yaml:"exercise"`
	Diet     []string `yaml:"diet"`
	Alerts   []string `yaml:"alerts"`
}

// AgeProfile holds the targets for one age group.
type AgeProfile struct {
	ExerciseIntensity string `yaml:"exercise_intensity"`
	HydrationGlasses  int    `yaml:"hydration_glasses"`
	SleepHours        int    `yaml:"sleep_hours"`
}

// Catalog is the immutable rule catalog, loaded once at startup. Conditions
// keep declaration order because matching is first-substring-wins.
type Catalog struct {
	Conditions []RuleSet             `yaml:"conditions"`
	AgeGroups  map[string]AgeProfile `yaml:"age_groups"`
}

// Load decodes the embedded catalog.
func Load() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		return nil, fmt.Errorf("failed to decode rule catalog: %w", err)
	}

	if _, ok := c.ruleSet(FallbackKey); !ok {
		return nil, fmt.Errorf("rule catalog is missing the %q fallback", FallbackKey)
	}
	for _, group := range []string{GroupYoung, GroupAdult, GroupSenior} {
		if _, ok := c.AgeGroups[group]; !ok {
			return nil, fmt.Errorf("rule catalog is missing age group %q", group)
		}
	}

	return &c, nil
}

func (c *Catalog) ruleSet(key string) (*RuleSet, bool) {
	for i := range c.Conditions {
		if c.Conditions[i].Key == key {
			return &c.Conditions[i], true
		}
	}
	return nil, false
}

// ResolveKey maps a free-text condition to the best-matching catalog key.
// The first key (in declaration order) that is a substring of the lowered
// input wins; empty or unmatched input resolves to the fallback.
func (c *Catalog) ResolveKey(condition string) string {
	if condition == "" {
		return FallbackKey
	}
	condition = strings.ToLower(condition)
	for i := range c.Conditions {
		if strings.Contains(condition, c.Conditions[i].Key) {
			return c.Conditions[i].Key
		}
	}
	return FallbackKey
}

// Resolve returns the rule-set for a free-text condition.
func (c *Catalog) Resolve(condition string) *RuleSet {
	rs, _ := c.ruleSet(c.ResolveKey(condition))
	return rs
}

// AgeGroup buckets an age into young (<30), adult (30-59) or senior (>=60).
func AgeGroup(age int) string {
	switch {
	case age < 30:
		return GroupYoung
	case age < 60:
		return GroupAdult
	default:
		return GroupSenior
	}
}

// AgeProfile returns the targets for an age.
func (c *Catalog) AgeProfile(age int) AgeProfile {
	return c.AgeGroups[AgeGroup(age)]
}
