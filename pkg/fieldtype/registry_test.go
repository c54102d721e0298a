package fieldtype

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

type fixtureUser struct {
	Email string
}

type fixturePost struct {
	Title string
}

func TestRegisterModelResolvesByQualifiedName(t *testing.T) {
	t.Cleanup(resetModels)

	rt := reflect.TypeOf(fixtureUser{})
	name := QualifiedName(rt)
	desc, err := RegisterModel(name, rt)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !desc.IsModel() {
		t.Fatalf("expected model descriptor")
	}
	if desc.GoType() != rt {
		t.Fatalf("descriptor carries wrong go type %s", desc.GoType())
	}

	resolved, err := Resolve(name)
	if err != nil {
		t.Fatalf("resolve %q: %v", name, err)
	}
	if resolved != desc {
		t.Fatalf("resolve returned a different descriptor")
	}

	viaType, err := ResolveGoType(rt)
	if err != nil {
		t.Fatalf("resolve go type: %v", err)
	}
	if viaType != desc {
		t.Fatalf("ResolveGoType returned a different descriptor")
	}
}

func TestRegisterModelIdempotentAndConflicts(t *testing.T) {
	t.Cleanup(resetModels)

	rt := reflect.TypeOf(fixtureUser{})
	name := QualifiedName(rt)
	first, err := RegisterModel(name, rt)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	again, err := RegisterModel(name, rt)
	if err != nil {
		t.Fatalf("idempotent register: %v", err)
	}
	if again != first {
		t.Fatalf("re-registration returned a new descriptor")
	}

	if _, err := RegisterModel(name, reflect.TypeOf(fixturePost{})); !errors.Is(err, ErrConflictingRegistration) {
		t.Fatalf("expected conflicting registration error, got %v", err)
	}
	if _, err := RegisterModel("bigint", rt); !errors.Is(err, ErrConflictingRegistration) {
		t.Fatalf("expected built-in shadowing to be rejected, got %v", err)
	}
	if _, err := RegisterModel("", rt); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected empty name error, got %v", err)
	}
	if _, err := RegisterModel("x", nil); !errors.Is(err, ErrNilType) {
		t.Fatalf("expected nil type error, got %v", err)
	}
}

func TestQualifiedName(t *testing.T) {
	if got := QualifiedName(reflect.TypeOf(fixtureUser{})); got != "recordcore/pkg/fieldtype.fixtureUser" {
		t.Fatalf("unexpected qualified name %q", got)
	}
	if got := QualifiedName(reflect.TypeOf([]int64{})); got != "" {
		t.Fatalf("expected empty name for unnamed type, got %q", got)
	}
	if got := QualifiedName(nil); got != "" {
		t.Fatalf("expected empty name for nil type, got %q", got)
	}
}

// Concurrent readers must keep resolving while registrations publish new
// snapshots.
func TestConcurrentResolveDuringRegistration(t *testing.T) {
	t.Cleanup(resetModels)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := Resolve("int64"); err != nil {
					t.Errorf("resolve int64: %v", err)
					return
				}
				_ = Defined("recordcore/pkg/fieldtype.fixtureUser")
			}
		}()
	}

	rt := reflect.TypeOf(fixtureUser{})
	name := QualifiedName(rt)
	for i := 0; i < 1000; i++ {
		if _, err := RegisterModel(name, rt); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}
	close(stop)
	wg.Wait()

	if !Defined(name) {
		t.Fatalf("expected %q defined after registrations", name)
	}
}
