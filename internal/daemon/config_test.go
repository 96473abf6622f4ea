package daemon

import (
	"context"
	"os"
	"path/filepath"
	"ser2sockd/internal/global"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) (path string) {
	path = filepath.Join(t.TempDir(), "ser2sockd.json")
	err := os.WriteFile(path, []byte(content), 0600)
	if err != nil {
		t.Fatalf("failed writing config: %v", err)
	}
	return
}

func TestNewDaemonConf(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr bool
		check   func(t *testing.T, cfg Config)
	}{
		{
			name:   "empty config enables relay",
			config: `{}`,
			check: func(t *testing.T, cfg Config) {
				if !cfg.Enabled {
					t.Fatalf("expected relay enabled when unset")
				}
				if !cfg.RequireConnectivity {
					t.Fatalf("expected connectivity required when unset")
				}
				if cfg.LogVerbosity != -1 {
					t.Fatalf("expected verbosity unset, but got '%d'", cfg.LogVerbosity)
				}
			},
		},
		{
			name: "explicit values",
			config: `{"enabled":false,"network":{"address":"127.0.0.1","port":12000,"requireConnectivity":false},
				"acl":"10.0.0.0/8","relay":{"maxClients":8,"queueCapacity":10,"pollTimeout":"1ms"},
				"source":{"type":"tcp","address":"127.0.0.1:4000","reconnectDelay":"1s"}}`,
			check: func(t *testing.T, cfg Config) {
				if cfg.Enabled {
					t.Fatalf("expected relay disabled")
				}
				if cfg.RequireConnectivity {
					t.Fatalf("expected connectivity not required")
				}
				if cfg.ListenIP != "127.0.0.1" || cfg.ListenPort != 12000 {
					t.Fatalf("expected 127.0.0.1:12000, but got '%s:%d'", cfg.ListenIP, cfg.ListenPort)
				}
				if cfg.ACL != "10.0.0.0/8" {
					t.Fatalf("expected acl '10.0.0.0/8', but got '%s'", cfg.ACL)
				}
				if cfg.MaxClients != 8 || cfg.QueueCapacity != 10 {
					t.Fatalf("expected 8 clients with 10 slots, but got '%d/%d'", cfg.MaxClients, cfg.QueueCapacity)
				}
				if cfg.PollTimeout != time.Millisecond {
					t.Fatalf("expected 1ms poll timeout, but got '%s'", cfg.PollTimeout)
				}
				if cfg.SourceType != "tcp" || cfg.SourceReconnectDelay != time.Second {
					t.Fatalf("expected tcp source with 1s delay, but got '%s/%s'", cfg.SourceType, cfg.SourceReconnectDelay)
				}
			},
		},
		{
			name:    "verbosity out of range",
			config:  `{"logVerbosity":9}`,
			wantErr: true,
		},
		{
			name:   "verbosity set",
			config: `{"logVerbosity":0}`,
			check: func(t *testing.T, cfg Config) {
				if cfg.LogVerbosity != 0 {
					t.Fatalf("expected verbosity 0, but got '%d'", cfg.LogVerbosity)
				}
			},
		},
		{
			name:    "bad acl entry",
			config:  `{"acl":"10.0.0.1,bad"}`,
			wantErr: true,
		},
		{
			name:    "acl prefix too long",
			config:  `{"acl":"10.0.0.0/40"}`,
			wantErr: true,
		},
		{
			name:   "blank acl accepted",
			config: `{"acl":" , "}`,
			check: func(t *testing.T, cfg Config) {
				if cfg.ACL != " , " {
					t.Fatalf("expected blank acl passed through, but got '%s'", cfg.ACL)
				}
			},
		},
		{
			name:    "bad duration",
			config:  `{"relay":{"pollTimeout":"soon"}}`,
			wantErr: true,
		},
		{
			name:    "negative duration",
			config:  `{"source":{"reconnectDelay":"-1s"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jsonCfg, err := LoadConfig(writeConfig(t, tt.config))
			if err != nil {
				t.Fatalf("expected config to load, but got '%v'", err)
			}

			cfg, err := jsonCfg.NewDaemonConf()
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, but got '%v'", tt.wantErr, err)
			}
			if err == nil && tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadConfig_InvalidSyntax(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `{"acl":`))
	if err == nil {
		t.Fatalf("expected syntax error")
	}

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestApplyEnvironment(t *testing.T) {
	t.Setenv(global.EnvPrefix+"ACL", "192.168.0.0/16")
	t.Setenv(global.EnvPrefix+"NETWORK_PORT", "15000")

	envFile := filepath.Join(t.TempDir(), "ser2sockd.env")
	err := os.WriteFile(envFile, []byte(global.EnvPrefix+"RELAY_QUEUE_CAPACITY=12\n"+global.EnvPrefix+"ACL=10.0.0.1\n"), 0600)
	if err != nil {
		t.Fatalf("failed writing env file: %v", err)
	}
	cfg := JSONConfig{ACL: "127.0.0.1"}
	cfg.Network.Port = 10000

	err = applyEnvironment(&cfg, envFile)
	if err != nil {
		t.Fatalf("expected no error applying environment, but got '%v'", err)
	}

	// Process environment wins over the file
	if cfg.ACL != "192.168.0.0/16" {
		t.Fatalf("expected acl from environment, but got '%s'", cfg.ACL)
	}
	if cfg.Network.Port != 15000 {
		t.Fatalf("expected port 15000, but got '%d'", cfg.Network.Port)
	}
	if cfg.Relay.QueueCapacity != 12 {
		t.Fatalf("expected queue capacity from env file, but got '%d'", cfg.Relay.QueueCapacity)
	}
}

func TestApplyEnvironment_FileReread(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "ser2sockd.env")

	tests := []struct {
		name    string
		content string
		wantACL string
	}{
		{"initial file", global.EnvPrefix + "ACL=10.0.0.1\n", "10.0.0.1"},
		{"edited before reload", global.EnvPrefix + "ACL=172.16.0.0/12\n", "172.16.0.0/12"},
		{"override removed", "", "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := os.WriteFile(envFile, []byte(tt.content), 0600)
			if err != nil {
				t.Fatalf("failed writing env file: %v", err)
			}

			cfg := JSONConfig{ACL: "127.0.0.1"}
			err = applyEnvironment(&cfg, envFile)
			if err != nil {
				t.Fatalf("expected no error applying environment, but got '%v'", err)
			}
			if cfg.ACL != tt.wantACL {
				t.Fatalf("expected acl '%s', but got '%s'", tt.wantACL, cfg.ACL)
			}
			if _, leaked := os.LookupEnv(global.EnvPrefix + "ACL"); leaked {
				t.Fatalf("expected env file values to stay out of the process environment")
			}
		})
	}
}

func TestApplyEnvironment_MissingFile(t *testing.T) {
	cfg := JSONConfig{ACL: "127.0.0.1"}
	err := applyEnvironment(&cfg, filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("expected missing env file to be ignored, but got '%v'", err)
	}
	if cfg.ACL != "127.0.0.1" {
		t.Fatalf("expected acl untouched, but got '%s'", cfg.ACL)
	}
}

func TestApplyEnvironment_BadValue(t *testing.T) {
	t.Setenv(global.EnvPrefix+"NETWORK_PORT", "tenthousand")

	var cfg JSONConfig
	err := applyEnvironment(&cfg, "")
	if err == nil {
		t.Fatalf("expected error for non-numeric port")
	}
}

func TestSetDefaults(t *testing.T) {
	var cfg Config
	cfg.setDefaults(context.Background())

	if cfg.ListenIP != global.DefaultListenAddr || cfg.ListenPort != global.DefaultListenPort {
		t.Fatalf("expected default listen address, but got '%s:%d'", cfg.ListenIP, cfg.ListenPort)
	}
	if cfg.MaxClients != global.DefaultMaxConnections-1 {
		t.Fatalf("expected %d clients, but got '%d'", global.DefaultMaxConnections-1, cfg.MaxClients)
	}
	if cfg.QueueCapacity < 1 || cfg.QueueCapacity > global.DefaultQueueCapacity {
		t.Fatalf("expected capacity within 1..%d, but got '%d'", global.DefaultQueueCapacity, cfg.QueueCapacity)
	}
	if cfg.PollTimeout != global.DefaultPollTimeout {
		t.Fatalf("expected poll timeout %s, but got '%s'", global.DefaultPollTimeout, cfg.PollTimeout)
	}
	if cfg.KeepAliveCount != global.DefaultKeepAliveCount {
		t.Fatalf("expected keep-alive count %d, but got '%d'", global.DefaultKeepAliveCount, cfg.KeepAliveCount)
	}
	if cfg.MetricCollectionInterval != 15*time.Second || cfg.MetricMaxAge != time.Hour {
		t.Fatalf("expected metric defaults, but got '%s/%s'", cfg.MetricCollectionInterval, cfg.MetricMaxAge)
	}

	// Set values are kept
	cfg = Config{ListenPort: 9000, QueueCapacity: 2}
	cfg.setDefaults(context.Background())
	if cfg.ListenPort != 9000 || cfg.QueueCapacity != 2 {
		t.Fatalf("expected explicit values kept, but got '%d/%d'", cfg.ListenPort, cfg.QueueCapacity)
	}
}
