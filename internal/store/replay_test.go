package store

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"github.com/roach88/bake/internal/ir"
)

func TestReplay_Identical(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	bakeAndRecord(t, s, "ok", "hello world",
		step("To Upper case", ir.IRString("All")),
		step("Reverse", ir.IRString("Character")))

	result, err := s.Replay(ctx, setupTestEngine(t), "ok", []byte("hello world"))
	if err != nil {
		t.Fatalf("Replay() failed: %v", err)
	}
	if !result.Identical() {
		t.Errorf("Drift = %v, want none", result.Drift)
	}
	if string(result.Output) != "DLROW OLLEH" {
		t.Errorf("Output = %q", result.Output)
	}
}

func TestReplay_FailedBakeReproduces(t *testing.T) {
	s := createTestStore(t)

	bakeAndRecord(t, s, "failed", "abc", failStep())

	result, err := s.Replay(context.Background(), setupTestEngine(t), "failed", []byte("abc"))
	if err != nil {
		t.Fatalf("Replay() failed: %v", err)
	}
	if !result.Identical() || result.Status != ir.BakeStatusError || result.ErrorStep != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestReplay_DetectsDrift(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	bake := createTestBake("tampered", ir.BakeStatusError, 5)
	bake.ErrorStep = 0
	bake.Output = []byte("xyz")
	if _, err := s.WriteBake(ctx, bake, nil); err != nil {
		t.Fatalf("WriteBake() failed: %v", err)
	}

	result, err := s.Replay(ctx, setupTestEngine(t), "tampered", []byte("abc"))
	if err != nil {
		t.Fatalf("Replay() failed: %v", err)
	}
	if want := []string{"status", "error_step", "output"}; !reflect.DeepEqual(result.Drift, want) {
		t.Errorf("Drift = %v, want %v", result.Drift, want)
	}
}

func TestReplay_InputMismatch(t *testing.T) {
	s := createTestStore(t)
	bakeAndRecord(t, s, "ok", "abc", step("To Upper case", ir.IRString("All")))

	_, err := s.Replay(context.Background(), setupTestEngine(t), "ok", []byte("abd"))
	var mismatch *InputMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Replay() error = %v, want InputMismatchError", err)
	}
	if mismatch.BakeID != "ok" {
		t.Errorf("BakeID = %q", mismatch.BakeID)
	}
}

func TestReplay_UnknownBake(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Replay(context.Background(), setupTestEngine(t), "missing", nil)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Replay() error = %v, want sql.ErrNoRows", err)
	}
}

func TestReplay_CancelledContext(t *testing.T) {
	s := createTestStore(t)
	bakeAndRecord(t, s, "ok", "abc", step("To Upper case", ir.IRString("All")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Replay(ctx, setupTestEngine(t), "ok", []byte("abc")); err == nil {
		t.Error("expected error from cancelled replay")
	}
}
