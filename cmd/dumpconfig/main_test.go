package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMaskToken(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"abc":          "****",
		"abcd":         "****",
		"abcdef123456": "abcd****",
	}
	for in, want := range cases {
		if got := maskToken(in); got != want {
			t.Fatalf("maskToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDumpConfigMasksToken(t *testing.T) {
	t.Setenv("DIRECTORY_ANALYTICS_TOKEN", "secret-token-value")
	dir := t.TempDir()
	path := filepath.Join(dir, "directory.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  listen_addr: \":9191\"\n"), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "--env-file", filepath.Join(dir, "missing.env")})
	require.NoError(t, cmd.Execute())

	require.NotContains(t, out.String(), "secret-token-value")

	var dumped struct {
		Server struct {
			ListenAddr string `yaml:"listen_addr"`
		} `yaml:"server"`
		Analytics struct {
			Token           string `yaml:"token"`
			DeliveryTimeout string `yaml:"delivery_timeout"`
		} `yaml:"analytics"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &dumped))
	require.Equal(t, ":9191", dumped.Server.ListenAddr)
	require.Equal(t, "secr****", dumped.Analytics.Token)
	require.Equal(t, "15s", dumped.Analytics.DeliveryTimeout)
}

func TestDumpConfigRejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})
	require.Error(t, cmd.Execute())
}
