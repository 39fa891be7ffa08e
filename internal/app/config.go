// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vk/stencilgo/internal/stencil"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ProgramPaths are program files or directories holding them.
	ProgramPaths []string `validate:"required,min=1,dive,required"`

	LogFormat       string `validate:"oneof=text json"`
	LogLevel        string `validate:"oneof=debug info warn error"`
	HealthcheckPort int    `validate:"min=0,max=65535"`

	Backend string `validate:"oneof=naive block"`
	Workers int    `validate:"min=1"`
	TileI   int    `validate:"min=1"`
	TileJ   int    `validate:"min=1"`
	Debug   bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q check (value %v)", fe.Field(), fe.ActualTag(), fe.Value()))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	return &cfg, nil
}

// Options returns the compile options the configuration selects.
func (c *Config) Options() stencil.Options {
	return stencil.Options{
		Backend: stencil.Backend(c.Backend),
		TileI:   c.TileI,
		TileJ:   c.TileJ,
		Workers: c.Workers,
		Debug:   c.Debug,
	}
}
