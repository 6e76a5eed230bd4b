package procrun

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLaunchMissingBinary(t *testing.T) {
	err := OS{}.Launch(Cmd{Name: "taskchime-no-such-binary-zz"})
	if err == nil {
		t.Fatalf("expected launch of missing binary to fail")
	}
}

func TestLaunchReturnsBeforeChildExits(t *testing.T) {
	start := time.Now()
	if err := (OS{}).Launch(Cmd{Name: "sleep", Args: []string{"5"}}); err != nil {
		t.Skipf("sleep unavailable: %v", err)
	}
	if d := time.Since(start); d > 2*time.Second {
		t.Fatalf("Launch blocked for %v; must not wait for the child", d)
	}
}

func TestOutputCaptures(t *testing.T) {
	out, err := OS{}.Output(context.Background(), time.Second, Cmd{Name: "echo", Args: []string{"chime"}})
	if err != nil {
		t.Skipf("echo unavailable: %v", err)
	}
	if strings.TrimSpace(string(out)) != "chime" {
		t.Fatalf("output = %q, want chime", out)
	}
}

func TestOutputTimeout(t *testing.T) {
	start := time.Now()
	_, err := OS{}.Output(context.Background(), 100*time.Millisecond, Cmd{Name: "sleep", Args: []string{"10"}})
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
	if d := time.Since(start); d > 2*time.Second {
		t.Fatalf("bounded call ran for %v past its 100ms deadline", d)
	}
}
