package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestConfigurationErrorClassification(t *testing.T) {
	err := NewConfigurationError("noise", "low %v > high %v", 0.3, 0.1)
	wrapped := fmt.Errorf("loading preset: %w", err)

	if !IsConfigurationError(wrapped) {
		t.Fatal("expected wrapped ConfigurationError to be classified")
	}
	if IsGenerationError(wrapped) {
		t.Error("ConfigurationError classified as GenerationError")
	}

	var cfgErr *ConfigurationError
	if !errors.As(wrapped, &cfgErr) || cfgErr.Field != "noise" {
		t.Errorf("errors.As did not recover field, got %+v", cfgErr)
	}
}

func TestGenerationErrorKeepsCause(t *testing.T) {
	err := &GenerationError{Requested: 10, Produced: 4, Attempts: 7, Cause: context.Canceled}

	if !IsGenerationError(err) {
		t.Error("expected GenerationError classification")
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("expected cause to be reachable through errors.Is")
	}

	genErr, ok := AsGenerationError(fmt.Errorf("outer: %w", err))
	if !ok {
		t.Fatal("AsGenerationError failed on wrapped error")
	}
	if genErr.Produced != 4 || genErr.Requested != 10 {
		t.Errorf("unexpected counters: %+v", genErr)
	}
}
