package sandbox

import (
	"strings"
	"testing"

	"github.com/go-rod/rod/lib/proto"

	"sketch-sim/internal/config"
)

func TestBlockRequestCancelsOnlyNavigations(t *testing.T) {
	cases := []struct {
		resType proto.NetworkResourceType
		blocked bool
	}{
		{proto.NetworkResourceTypeDocument, true},
		{proto.NetworkResourceTypeScript, false},
		{proto.NetworkResourceTypeImage, false},
		{proto.NetworkResourceTypeXHR, false},
		{proto.NetworkResourceTypeFetch, false},
	}
	for _, tc := range cases {
		if got := blockRequest(tc.resType); got != tc.blocked {
			t.Errorf("blockRequest(%s) = %v, want %v", tc.resType, got, tc.blocked)
		}
	}
}

func TestStorageLockdownCoversStorageSurface(t *testing.T) {
	for _, api := range []string{"localStorage", "sessionStorage", "indexedDB", "cookie"} {
		if !strings.Contains(storageLockdown, api) {
			t.Errorf("lockdown script does not cover %s", api)
		}
	}
}

func TestUnstartedViewerDegradesToNoOps(t *testing.T) {
	v := NewViewer(config.SandboxConfig{})
	if v.Ready() {
		t.Fatal("viewer should not be ready before Start")
	}
	if err := v.Load("<html></html>"); err != nil {
		t.Fatalf("load without browser: %v", err)
	}
	v.SetPlaying(true)
	v.Close()
	if err := v.Start(); err == nil {
		t.Fatal("expected Start after Close to fail")
	}
}
