package main

import (
	"testing"
)

func TestBuildRootCmd(t *testing.T) {
	root := buildRootCmd()
	if root.Use != "breadcrumbs" {
		t.Errorf("Use = %q", root.Use)
	}

	want := []string{"serve", "chat", "tools", "keys", "token"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q missing", name)
		}
	}
}

func TestKeysSubcommands(t *testing.T) {
	root := buildRootCmd()
	for _, cmd := range root.Commands() {
		if cmd.Name() != "keys" {
			continue
		}
		want := map[string]bool{"set": false, "delete": false, "list": false}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("keys subcommand %q missing", name)
			}
		}
		return
	}
	t.Fatal("keys command missing")
}
