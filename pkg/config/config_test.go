package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/apache/distributedlog-statestore/pkg/util/typeutil"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "default config",
			args: []string{},
			want: Config{
				Log:               NewLog(),
				Name:              "",
				DataDir:           "",
				Stream:            "",
				MetricsEnabled:    false,
				EngineOpenTimeout: typeutil.NewDuration(time.Second),
			},
		},
		{
			name: "config from command line",
			args: []string{
				"--name=test-name",
				"--data-dir=test-data-dir",
				"--stream=test-stream",
				"--metrics-enabled=true",
				"--engine-open-timeout=5s",
			},
			want: Config{
				Log:               NewLog(),
				Name:              "test-name",
				DataDir:           "test-data-dir",
				Stream:            "test-stream",
				MetricsEnabled:    true,
				EngineOpenTimeout: typeutil.NewDuration(5 * time.Second),
			},
		},
		{
			name: "help message",
			args: []string{"--help"},
			wantErr: true,
			errMsg:  pflag.ErrHelp.Error(),
		},
		{
			name: "parse arguments error",
			args: []string{
				"--name=test",
				"--data-dir",
			},
			wantErr: true,
			errMsg:  "flag needs an argument",
		},
		{
			name:    "read configuration file error",
			args:    []string{"--config=not-exist.yaml"},
			wantErr: true,
			errMsg:  "read configuration file",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			re := require.New(t)

			config, err := NewConfig(tt.args)

			if tt.wantErr {
				re.ErrorContains(err, tt.errMsg)
				return
			}
			re.NoError(err)
			// do not check auxiliary fields
			config.v = nil
			config.lg = nil
			config.args = nil
			tt.want.Log.Zap = config.Log.Zap
			re.Equal(tt.want, *config)
		})
	}
}

func TestNewConfig_FromFile(t *testing.T) {
	re := require.New(t)

	path := writeConfigFile(t, "store.yaml", "name: from-file\ndata-dir: /tmp/from-file\nstream: s1\nmetrics-enabled: true\n")

	config, err := NewConfig([]string{"--config=" + path})
	re.NoError(err)
	re.Equal("from-file", config.Name)
	re.Equal("/tmp/from-file", config.DataDir)
	re.Equal("s1", config.Stream)
	re.True(config.MetricsEnabled)
}

func TestNewConfig_UnmarshalError(t *testing.T) {
	re := require.New(t)

	path := writeConfigFile(t, "store.toml", "metrics-enabled = \"not-a-bool\"\n")

	_, err := NewConfig([]string{"--config=" + path})
	re.ErrorContains(err, "unmarshal configuration")
}

func TestAdjust(t *testing.T) {
	hostname, e := os.Hostname()
	require.NoError(t, e)

	tests := []struct {
		name string
		in   *Config
		want *Config
	}{
		{
			name: "default config",
			in:   &Config{},
			want: &Config{
				Name:    fmt.Sprintf("statestore-%s", hostname),
				DataDir: fmt.Sprintf("default.statestore-%s", hostname),
			},
		},
		{
			name: "explicit values are preserved",
			in:   &Config{Name: "custom", DataDir: "/data/custom"},
			want: &Config{Name: "custom", DataDir: "/data/custom"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			re := require.New(t)

			err := tt.in.Adjust()
			re.NoError(err)
			re.Equal(tt.want.Name, tt.in.Name)
			re.Equal(tt.want.DataDir, tt.in.DataDir)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      *Config
		wantErr bool
	}{
		{
			name: "absolute data dir",
			in:   &Config{Name: "n", DataDir: "/tmp/store"},
		},
		{
			name: "relative data dir resolves fine",
			in:   &Config{Name: "n", DataDir: "relative/store"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			re := require.New(t)

			err := tt.in.Validate()
			if tt.wantErr {
				re.Error(err)
				return
			}
			re.NoError(err)
		})
	}
}
