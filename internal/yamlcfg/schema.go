// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package yamlcfg

import "gopkg.in/yaml.v3"

type programFile struct {
	Grid         *gridDoc          `yaml:"grid"`
	Fields       []*fieldDoc       `yaml:"fields"`
	Computations []*computationDoc `yaml:"computations"`
	Boundaries   []*boundaryDoc    `yaml:"boundaries"`
}

type gridDoc struct {
	Size      []int `yaml:"size"`
	Halo      int   `yaml:"halo"`
	Splitters []int `yaml:"splitters"`
}

type fieldDoc struct {
	Name     string    `yaml:"name"`
	Location string    `yaml:"location"`
	Init     yaml.Node `yaml:"init"`
}

type temporaryDoc struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
}

type kCacheDoc struct {
	Policy string   `yaml:"policy"`
	Fields []string `yaml:"fields"`
}

type stageDoc struct {
	Functor string               `yaml:"functor"`
	Args    []string             `yaml:"args"`
	Extent  []int                `yaml:"extent"`
	Group   string               `yaml:"group"`
	Params  map[string]yaml.Node `yaml:"params"`
}

type multiStageDoc struct {
	Order    string       `yaml:"order"`
	IJCached []string     `yaml:"ij_cached"`
	KCached  []*kCacheDoc `yaml:"k_cached"`
	Stages   []*stageDoc  `yaml:"stages"`
}

type computationDoc struct {
	Name        string           `yaml:"name"`
	Iterations  int              `yaml:"iterations"`
	Temporaries []*temporaryDoc  `yaml:"temporaries"`
	MultiStages []*multiStageDoc `yaml:"multi_stages"`
}

type ruleDoc struct {
	Handler   string               `yaml:"handler"`
	Direction []string             `yaml:"direction"`
	Params    map[string]yaml.Node `yaml:"params"`
}

type boundaryDoc struct {
	Field   string     `yaml:"field"`
	Sources []string   `yaml:"sources"`
	Rules   []*ruleDoc `yaml:"rules"`
}
