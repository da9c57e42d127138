package browser

import (
	"context"
	"errors"
	"testing"
)

func TestNewChrome_MissingExecutableIsUnavailable(t *testing.T) {
	c := NewChrome(Options{ExecPath: "atsprobe-no-such-browser"})
	if c.Available() {
		t.Fatal("expected browser to be unavailable")
	}

	if _, err := c.CaptureJSON(context.Background(), "https://acme.com/careers"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("CaptureJSON err = %v, want ErrUnavailable", err)
	}
	if _, err := c.RenderHTML(context.Background(), "https://acme.com/careers"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("RenderHTML err = %v, want ErrUnavailable", err)
	}
}

func TestNewChrome_Defaults(t *testing.T) {
	c := NewChrome(Options{ExecPath: "atsprobe-no-such-browser"})
	if c.pageTimeout != DefaultPageTimeout {
		t.Errorf("page timeout = %v, want %v", c.pageTimeout, DefaultPageTimeout)
	}
	if c.logger == nil {
		t.Error("expected a default logger")
	}
}
