package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"

	mdwerrors "github.com/msto63/structlint/pkg/core/errors"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"seconds", "30s", 30 * time.Second, false},
		{"milliseconds", "250ms", 250 * time.Millisecond, false},
		{"complex", "1m30s", 90 * time.Second, false},
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))

			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && d.Duration != tt.expected {
				t.Errorf("UnmarshalText() = %v, want %v", d.Duration, tt.expected)
			}
		})
	}
}

func TestDuration_MarshalText(t *testing.T) {
	d := Duration{200 * time.Millisecond}
	result, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(result) != "200ms" {
		t.Errorf("MarshalText() = %v, want 200ms", string(result))
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Format.IndentStep != 2 {
		t.Errorf("Format.IndentStep = %v, want 2", cfg.Format.IndentStep)
	}
	if cfg.Format.TabWidth != 4 {
		t.Errorf("Format.TabWidth = %v, want 4", cfg.Format.TabWidth)
	}
	if cfg.Parser.ParamLookahead != 3 || cfg.Parser.ParamBlockLines != 10 || cfg.Parser.RecoveryWindow != 50 {
		t.Errorf("Parser = %+v, want 3/10/50", cfg.Parser)
	}
	if cfg.Watch.Debounce.Duration != 200*time.Millisecond {
		t.Errorf("Watch.Debounce = %v, want 200ms", cfg.Watch.Debounce.Duration)
	}
	if cfg.WSAddress() != "127.0.0.1:7410" {
		t.Errorf("WSAddress() = %v", cfg.WSAddress())
	}
	if cfg.GRPCAddress() != "127.0.0.1:7411" {
		t.Errorf("GRPCAddress() = %v", cfg.GRPCAddress())
	}
	if cfg.Source() != "" {
		t.Errorf("Source() = %q, want empty", cfg.Source())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadFS_TOML(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `
[format]
indent_step = 4
tab_width = 8

[parser]
recovery_window = 20

[log]
level = "debug"

[watch]
debounce = "50ms"

[lint]
extensions = [".cfg"]
`
	if err := afero.WriteFile(fs, "/etc/structlint.toml", []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFS(fs, "/etc/structlint.toml")
	if err != nil {
		t.Fatalf("LoadFS() error = %v", err)
	}
	if cfg.Format.IndentStep != 4 || cfg.Format.TabWidth != 8 {
		t.Errorf("Format = %+v", cfg.Format)
	}
	if cfg.Parser.RecoveryWindow != 20 || cfg.Parser.ParamLookahead != 3 {
		t.Errorf("Parser = %+v", cfg.Parser)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %v", cfg.Log.Level)
	}
	if cfg.Watch.Debounce.Duration != 50*time.Millisecond {
		t.Errorf("Watch.Debounce = %v", cfg.Watch.Debounce.Duration)
	}
	if cfg.Source() != "/etc/structlint.toml" {
		t.Errorf("Source() = %v", cfg.Source())
	}

	opts := cfg.AnalysisOptions()
	if opts.IndentStep != 4 || opts.Parser.TabWidth != 8 || opts.Parser.RecoveryWindow != 20 {
		t.Errorf("AnalysisOptions() = %+v", opts)
	}
}

func TestLoadFS_YAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "format:\n  indent_step: 3\nstore:\n  enabled: true\n  path: /tmp/runs.db\n"
	if err := afero.WriteFile(fs, "cfg.yaml", []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFS(fs, "cfg.yaml")
	if err != nil {
		t.Fatalf("LoadFS() error = %v", err)
	}
	if cfg.Format.IndentStep != 3 {
		t.Errorf("Format.IndentStep = %v, want 3", cfg.Format.IndentStep)
	}
	if !cfg.Store.Enabled || cfg.Store.Path != "/tmp/runs.db" {
		t.Errorf("Store = %+v", cfg.Store)
	}
}

func TestLoadFS_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "bad.toml", []byte("[format\nindent_step = 2"), 0o644)
	_ = afero.WriteFile(fs, "unknown.toml", []byte("[format]\nindent = 2"), 0o644)
	_ = afero.WriteFile(fs, "negative.toml", []byte("[format]\nindent_step = -1"), 0o644)
	_ = afero.WriteFile(fs, "ext.toml", []byte("[lint]\nextensions = [\"cfg\"]"), 0o644)

	tests := []struct {
		name string
		path string
	}{
		{"missing", "nope.toml"},
		{"syntax", "bad.toml"},
		{"unknown key", "unknown.toml"},
		{"negative step", "negative.toml"},
		{"extension without dot", "ext.toml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFS(fs, tt.path)
			if err == nil {
				t.Fatal("LoadFS() expected error")
			}
			if !mdwerrors.HasCode(err, mdwerrors.CodeConfigError) {
				t.Errorf("error %v does not carry CONFIG_ERROR", err)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvIndentStep, "6")
	t.Setenv(EnvTabWidth, "2")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvConfig, "")

	cfg, err := Resolve(afero.NewMemMapFs(), "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.Format.IndentStep != 6 || cfg.Format.TabWidth != 2 || cfg.Log.Level != "warn" {
		t.Errorf("overrides not applied: %+v %+v", cfg.Format, cfg.Log)
	}

	t.Setenv(EnvIndentStep, "two")
	if _, err := Resolve(afero.NewMemMapFs(), ""); err == nil {
		t.Error("Resolve() expected error for non-numeric indent step")
	}
}

func TestResolve_Order(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "explicit.toml", []byte("[format]\nindent_step = 5"), 0o644)
	_ = afero.WriteFile(fs, "env.toml", []byte("[format]\nindent_step = 7"), 0o644)
	_ = afero.WriteFile(fs, "structlint.toml", []byte("[format]\nindent_step = 9"), 0o644)

	t.Setenv(EnvConfig, "env.toml")
	cfg, err := Resolve(fs, "explicit.toml")
	if err != nil || cfg.Format.IndentStep != 5 {
		t.Errorf("explicit path: cfg=%+v err=%v", cfg, err)
	}

	cfg, err = Resolve(fs, "")
	if err != nil || cfg.Format.IndentStep != 7 {
		t.Errorf("env path: cfg=%+v err=%v", cfg, err)
	}

	t.Setenv(EnvConfig, "")
	cfg, err = Resolve(fs, "")
	if err != nil || cfg.Format.IndentStep != 9 {
		t.Errorf("working directory file: cfg=%+v err=%v", cfg, err)
	}
}

func TestHasExtension(t *testing.T) {
	cfg := Default()
	tests := []struct {
		path string
		want bool
	}{
		{"units.cfg", true},
		{"dir/UNITS.CFG", true},
		{"model.struct", true},
		{"readme.md", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := cfg.HasExtension(tt.path); got != tt.want {
			t.Errorf("HasExtension(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
