package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRootCmd_RejectsBadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte("users:\n  - name: x\n    colour: blue\n"), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	root := NewRootCmd()
	root.SetArgs([]string{"--seed", path, "--addr", "127.0.0.1:0", "--log-level", "error"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected unknown seed field to fail")
	}
}

func TestRootCmd_RejectsBadLogLevel(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"--log-level", "loud"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected invalid log level to fail")
	}
}
