package main

import (
	"os"
	"reflect"
	"strings"

	"github.com/naoina/toml"
)

// clusterConfig is the optional --config file describing a static peer
// roster for the TCP transport: one host:port per rank, in rank order.
// It is read whenever --local is not set; --local N runs the job as a
// single-process simulation instead and ignores --config.
type clusterConfig struct {
	Hosts []string `toml:"hosts"`
}

var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return strings.ToLower(field)
	},
	MissingField: func(rt reflect.Type, field string) error {
		return nil
	},
}

func loadClusterConfig(path string) (*clusterConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg clusterConfig
	if err := tomlSettings.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
