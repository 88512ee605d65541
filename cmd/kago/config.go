package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/caffeineduck/kago/namespace"
	"github.com/caffeineduck/kago/remap"
	"github.com/caffeineduck/kago/sandbox"
)

// Config is the optional YAML configuration file.
//
//	prefix: sandbox/
//	strict: true
//	seed: 7
//	allow:
//	  - java/lang/*
//	  - com/example/*
type Config struct {
	Prefix string   `yaml:"prefix"`
	Strict bool     `yaml:"strict"`
	Seed   int64    `yaml:"seed"`
	Allow  []string `yaml:"allow"`
}

func loadConfig(cmd *cobra.Command) (Config, error) {
	var cfg Config
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// policy builds the allow-list policy. Patterns are exact names or
// package prefixes ending in "/*". No patterns means allow everything.
func (c Config) policy() remap.Policy {
	if len(c.Allow) == 0 {
		return nil
	}
	patterns := c.Allow
	return remap.PolicyFunc(func(name namespace.HostName) bool {
		for _, pattern := range patterns {
			if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
				if strings.HasPrefix(string(name), prefix+"/") {
					return true
				}
			} else if string(name) == pattern {
				return true
			}
		}
		return false
	})
}

func (c Config) contextOptions() []sandbox.Option {
	var opts []sandbox.Option
	if c.Prefix != "" {
		opts = append(opts, sandbox.WithPrefix(c.Prefix))
	}
	if p := c.policy(); p != nil {
		opts = append(opts, sandbox.WithPolicy(p))
	}
	if c.Strict {
		opts = append(opts, sandbox.WithStrictHostNames())
	}
	return opts
}

func newContext(cmd *cobra.Command) (*sandbox.Context, Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	return sandbox.NewContext(cfg.contextOptions()...), cfg, nil
}
