// Copyright 2016 TiKV Project Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/apache/distributedlog-statestore/pkg/util/typeutil"
)

const (
	_defaultNameFormat    = "statestore-%s"
	_defaultDataDirFormat = "default.%s"

	_defaultEngineOpenTimeout = time.Second
)

// Config is the configuration for a standalone MVCC state store process.
type Config struct {
	v *viper.Viper

	Name string

	// DataDir is the on-disk directory the embedded engine opens
	// (local_state_store_dir).
	DataDir string

	// Stream optionally names the logical stream this store belongs to.
	Stream string

	// MetricsEnabled registers Prometheus collectors for store operations.
	MetricsEnabled bool

	// EngineOpenTimeout bounds how long the embedded engine waits for its
	// file lock when opening.
	EngineOpenTimeout typeutil.Duration

	Log *Log

	lg   *zap.Logger
	args []string
}

// NewConfig creates a new config.
func NewConfig(arguments []string) (*Config, error) {
	cfg := &Config{Log: NewLog()}

	v, fs := configure()

	// parse from command line
	fs.String("config", "", "configuration file")
	err := fs.Parse(arguments)
	if err != nil {
		return nil, err
	}

	// read configuration from file
	c, _ := fs.GetString("config")
	v.SetConfigFile(c)
	err = v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "read configuration file")
		}
	}

	// set config; duration strings such as "5s" decode into typeutil.Duration
	err = v.Unmarshal(cfg, viper.DecodeHook(func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(typeutil.Duration{}) || from.Kind() != reflect.String {
			return data, nil
		}
		var d typeutil.Duration
		if err := d.UnmarshalText([]byte(data.(string))); err != nil {
			return nil, err
		}
		return d, nil
	}))
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal configuration")
	}

	if err := cfg.Log.Adjust(); err != nil {
		return nil, errors.Wrap(err, "adjust log configuration")
	}
	logger, err := cfg.Log.Logger()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	cfg.lg = logger

	if configFile := v.ConfigFileUsed(); configFile != "" {
		logger.Info("load configuration from file.", zap.String("file-name", configFile))
	}

	cfg.v = v
	cfg.args = fs.Args()
	return cfg, nil
}

// Args returns the positional (non-flag) command-line arguments left over
// after flag parsing, e.g. a subcommand and its operands.
func (c *Config) Args() []string {
	return c.args
}

// Adjust generates default values for some fields (if they are empty)
func (c *Config) Adjust() error {
	if c.Name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return errors.Wrap(err, "get hostname")
		}
		c.Name = fmt.Sprintf(_defaultNameFormat, hostname)
	}
	if c.DataDir == "" {
		c.DataDir = fmt.Sprintf(_defaultDataDirFormat, c.Name)
	}
	if c.EngineOpenTimeout.Duration == 0 {
		c.EngineOpenTimeout = typeutil.NewDuration(_defaultEngineOpenTimeout)
	}
	return nil
}

// Validate checks whether the configuration is valid. It should be called after Adjust
func (c *Config) Validate() error {
	_, err := filepath.Abs(c.DataDir)
	if err != nil {
		return errors.Wrap(err, "invalid data dir path")
	}
	return nil
}

// Logger returns logger generated based on the config
func (c *Config) Logger() *zap.Logger {
	return c.lg
}

func configure() (*viper.Viper, *pflag.FlagSet) {
	v := viper.New()
	fs := pflag.NewFlagSet("ssctl", pflag.ContinueOnError)

	// Viper settings
	v.AddConfigPath(".")
	v.AddConfigPath("$CONFIG_DIR/")

	fs.String("name", "", "human-readable name for this store (default 'statestore-${hostname}')")
	fs.String("data-dir", "", "path to the data directory (default 'default.${name}')")
	fs.String("stream", "", "logical stream this store belongs to")
	fs.Bool("metrics-enabled", false, "register Prometheus collectors for store operations")
	fs.Duration("engine-open-timeout", _defaultEngineOpenTimeout, "timeout for acquiring the embedded engine's file lock on open")
	_ = v.BindPFlag("name", fs.Lookup("name"))
	_ = v.BindPFlag("data-dir", fs.Lookup("data-dir"))
	_ = v.BindPFlag("stream", fs.Lookup("stream"))
	_ = v.BindPFlag("metrics-enabled", fs.Lookup("metrics-enabled"))
	_ = v.BindPFlag("engine-open-timeout", fs.Lookup("engine-open-timeout"))
	v.RegisterAlias("Name", "name")
	v.RegisterAlias("DataDir", "data-dir")
	v.RegisterAlias("Stream", "stream")
	v.RegisterAlias("MetricsEnabled", "metrics-enabled")
	v.RegisterAlias("EngineOpenTimeout", "engine-open-timeout")

	return v, fs
}
