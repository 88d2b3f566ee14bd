package main

import (
	"context"
	"strings"
	"testing"
)

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"port", "policy", "log-level", "redis"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("flag --%s not defined", name)
		}
	}
}

func TestRootCmd_RejectsUnknownPolicy(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--policy", "roundrobin", "--redis=false", "--log-level", "error"})

	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "SIGNALING_POLICY") {
		t.Fatalf("err=%v, want invalid policy error", err)
	}
}
