package cron

import (
	"context"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	registry := NewRegistry(&stubJob{name: "low-stock"}, nil)
	registry.Register(&stubJob{name: "stock-audit"})
	registry.Register(nil)

	names := registry.Names()
	if len(names) != 2 || names[0] != "low-stock" || names[1] != "stock-audit" {
		t.Fatalf("unexpected names %v", names)
	}

	jobs := registry.Jobs()
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}
