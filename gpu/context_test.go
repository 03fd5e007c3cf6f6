package gpu

import (
	"errors"
	"testing"
)

func TestInitOptionsAfterFirstUse(t *testing.T) {
	// Consume the singleton's initialization; whether it produced a
	// device or ErrUnavailable does not matter here.
	GetContext()

	err := Init(WithAdapterIndex(0))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Init with options after first use: got %v, want ErrUnavailable", err)
	}

	// A bare Init stays legal: it just reports the context's state.
	if err := Init(); err != nil && !errors.Is(err, ErrUnavailable) {
		t.Errorf("bare Init: got unexpected error %v", err)
	}
}
