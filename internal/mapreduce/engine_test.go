package mapreduce

import (
	"errors"
	"testing"

	"github.com/duskraft/mrstate-go/internal/core/domain"
	"github.com/duskraft/mrstate-go/internal/kvstore"
)

func TestPerformMapReduce_SumDouble(t *testing.T) {
	s := kvstore.New()
	_ = s.InsertMany("Cat1", []int32{10, 20})
	_ = s.InsertMany("Cat2", []int32{30})

	e := New(s)
	got, err := e.PerformMapReduce("double", "sum", []string{"Cat1", "Cat2"})
	if err != nil {
		t.Fatalf("PerformMapReduce: %v", err)
	}
	want := domain.MapReduceResult{"Cat1": 60, "Cat2": 60}
	assertResultEqual(t, got, want)
}

func TestPerformMapReduce_SquareProduct(t *testing.T) {
	s := kvstore.New()
	_ = s.InsertMany("Cat1", []int32{10, 20})

	e := New(s)
	got, err := e.PerformMapReduce("square", "product", []string{"Cat1"})
	if err != nil {
		t.Fatalf("PerformMapReduce: %v", err)
	}
	want := domain.MapReduceResult{"Cat1": 40000}
	assertResultEqual(t, got, want)
}

func TestPerformMapReduce_MissingKeyOmitted(t *testing.T) {
	s := kvstore.New()
	e := New(s)

	got, err := e.PerformMapReduce("double", "sum", []string{"Missing"})
	if err != nil {
		t.Fatalf("PerformMapReduce: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("result = %v, want empty map (missing keys are omitted, not zero-valued)", got)
	}
}

func TestPerformMapReduce_EmptyKeys(t *testing.T) {
	s := kvstore.New()
	e := New(s)

	got, err := e.PerformMapReduce("double", "sum", nil)
	if err != nil {
		t.Fatalf("PerformMapReduce: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("result = %v, want empty map", got)
	}
}

func TestPerformMapReduce_UnknownOps(t *testing.T) {
	s := kvstore.New()
	e := New(s)

	if _, err := e.PerformMapReduce("nope", "sum", nil); !errors.Is(err, domain.ErrUnknownMapOp) {
		t.Errorf("expected ErrUnknownMapOp, got %v", err)
	}
	if _, err := e.PerformMapReduce("square", "nope", nil); !errors.Is(err, domain.ErrUnknownReduceOp) {
		t.Errorf("expected ErrUnknownReduceOp, got %v", err)
	}
}

func TestPerformMapReduce_DuplicateKeysDeterministic(t *testing.T) {
	// A key with an empty sequence is not observable per the store's
	// invariant, but a duplicate key in the keys list that resolves to
	// the same stored values must still be deterministic.
	s := kvstore.New()
	_ = s.Insert("Cat1", 5)
	e := New(s)

	got, err := e.PerformMapReduce("double", "sum", []string{"Cat1", "Cat1"})
	if err != nil {
		t.Fatalf("PerformMapReduce: %v", err)
	}
	want := domain.MapReduceResult{"Cat1": 10}
	assertResultEqual(t, got, want)
}

func TestPerformMapReduce_WrappingOverflow(t *testing.T) {
	s := kvstore.New()
	_ = s.Insert("Big", 1<<16) // sqrt(INT32_MAX) ballpark
	e := New(s)

	got, err := e.PerformMapReduce("square", "sum", []string{"Big"})
	if err != nil {
		t.Fatalf("PerformMapReduce: %v", err)
	}
	base := int32(1 << 16)
	want := base * base // 2^32 wraps to 0 per Go int32 semantics
	if got["Big"] != want {
		t.Errorf("got[Big] = %d, want %d", got["Big"], want)
	}
}

func assertResultEqual(t *testing.T, got, want domain.MapReduceResult) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("result = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("result[%q] = %d, want %d", k, got[k], v)
		}
	}
}
