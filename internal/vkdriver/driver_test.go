package vkdriver

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"

	"github.com/RewHiro/vulkan/internal/render"
)

func TestTable(t *testing.T) {
	var tb table[string]
	if got := tb.get(0); got != "" {
		t.Fatalf("get(0) = %q on empty table", got)
	}
	a, b := tb.put("a"), tb.put("b")
	if a == 0 || b == 0 || a == b {
		t.Fatalf("handles %d, %d: want distinct and non-zero", a, b)
	}
	if got := tb.getAll([]uint64{b, 0, a}); strings.Join(got, ",") != "b,,a" {
		t.Fatalf("getAll = %q", got)
	}
	if v, ok := tb.take(a); !ok || v != "a" {
		t.Fatalf("take(a) = %q, %v", v, ok)
	}
	if _, ok := tb.take(a); ok {
		t.Fatal("second take(a) succeeded")
	}
	if tb.len() != 1 {
		t.Fatalf("len = %d, want 1", tb.len())
	}
	if c := tb.put("c"); c == a {
		t.Fatal("released handle was reissued")
	}
}

func TestCheck(t *testing.T) {
	if err := check(vulkan.Success, "op"); err != nil {
		t.Fatalf("check(Success) = %v", err)
	}

	err := check(vulkan.Timeout, "vkWaitForFences")
	if !errors.Is(err, render.ErrTimeout) {
		t.Fatalf("timeout not marked: %v", err)
	}
	var re *ResultError
	if !errors.As(err, &re) || re.Op != "vkWaitForFences" || re.Result != vulkan.Timeout {
		t.Fatalf("ResultError = %+v", re)
	}

	err = check(vulkan.ErrorOutOfDate, "vkQueuePresentKHR")
	if !errors.Is(err, render.ErrOutOfDate) || errors.Is(err, render.ErrTimeout) {
		t.Fatalf("out of date marking wrong: %v", err)
	}

	err = check(vulkan.ErrorDeviceLost, "vkQueueSubmit")
	if errors.Is(err, render.ErrTimeout) || errors.Is(err, render.ErrOutOfDate) {
		t.Fatalf("device lost carries a sentinel: %v", err)
	}
	if !strings.HasPrefix(err.Error(), "vkQueueSubmit: ") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestReportLevel(t *testing.T) {
	tests := []struct {
		flags vulkan.DebugReportFlagBits
		want  slog.Level
	}{
		{vulkan.DebugReportErrorBit, slog.LevelError},
		{vulkan.DebugReportErrorBit | vulkan.DebugReportWarningBit, slog.LevelError},
		{vulkan.DebugReportWarningBit, slog.LevelWarn},
		{vulkan.DebugReportPerformanceWarningBit, slog.LevelWarn},
		{vulkan.DebugReportInformationBit, slog.LevelInfo},
		{vulkan.DebugReportDebugBit, slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := reportLevel(vulkan.DebugReportFlags(tt.flags)); got != tt.want {
			t.Errorf("reportLevel(%#x) = %v, want %v", tt.flags, got, tt.want)
		}
	}
}

func TestSafeString(t *testing.T) {
	for in, want := range map[string]string{
		"":                   "\x00",
		"VK_KHR_surface":     "VK_KHR_surface\x00",
		"VK_KHR_surface\x00": "VK_KHR_surface\x00",
	} {
		if got := safeString(in); got != want {
			t.Errorf("safeString(%q) = %q, want %q", in, got, want)
		}
	}
	if safeStrings(nil) != nil {
		t.Error("safeStrings(nil) != nil")
	}
	got := safeStrings([]string{"a", "b\x00"})
	if len(got) != 2 || got[0] != "a\x00" || got[1] != "b\x00" {
		t.Errorf("safeStrings = %q", got)
	}
}
