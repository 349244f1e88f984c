package core

import (
	"errors"
	"testing"
)

func TestArrayVecTryPushToCapacity(t *testing.T) {
	var storage [4]int
	v := NewArrayVec(storage[:])

	for i := 0; i < 4; i++ {
		if err := v.TryPush(i * 10); err != nil {
			t.Fatalf("TryPush(%d) failed: %v", i, err)
		}
	}
	if v.Len() != 4 || v.Cap() != 4 {
		t.Fatalf("Expected len 4 cap 4, got len %d cap %d", v.Len(), v.Cap())
	}

	err := v.TryPush(99)
	if !errors.Is(err, ErrRegistryFull) {
		t.Fatalf("Expected ErrRegistryFull, got %v", err)
	}
	if v.Len() != 4 {
		t.Errorf("Full push changed length to %d", v.Len())
	}
	for i, item := range v.All() {
		if item != i*10 {
			t.Errorf("Item %d = %d after full push", i, item)
		}
	}
}

func TestArrayVecIterationStopsAtLength(t *testing.T) {
	storage := []string{"stale", "stale", "stale"}
	var v ArrayVec[string]
	v.Init(storage)

	if v.Len() != 0 {
		t.Fatalf("Init did not reset length: %d", v.Len())
	}
	for range v.All() {
		t.Fatal("empty vec yielded an item")
	}

	v.TryPush("a")
	count := 0
	for _, s := range v.All() {
		count++
		if s != "a" {
			t.Errorf("Yielded uninitialized slot %q", s)
		}
	}
	if count != 1 {
		t.Errorf("Expected 1 item, got %d", count)
	}
}

func TestArrayVecPointersMutateInPlace(t *testing.T) {
	var storage [3]int
	v := NewArrayVec(storage[:])
	v.TryPush(1)
	v.TryPush(2)

	for p := range v.Pointers() {
		*p *= 100
	}
	if *v.At(0) != 100 || *v.At(1) != 200 {
		t.Errorf("Pointers did not mutate: %d %d", *v.At(0), *v.At(1))
	}
	if v.At(2) != nil || v.At(-1) != nil {
		t.Error("At past length should be nil")
	}

	// early break
	n := 0
	for range v.Pointers() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("break not honoured, got %d", n)
	}
}

func TestArrayVecReset(t *testing.T) {
	var storage [2]int
	v := NewArrayVec(storage[:])
	v.TryPush(1)
	v.TryPush(2)
	v.Reset()
	if v.Len() != 0 {
		t.Fatalf("Reset left length %d", v.Len())
	}
	if err := v.TryPush(3); err != nil {
		t.Fatalf("push after reset: %v", err)
	}
}
