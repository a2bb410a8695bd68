package service

import (
	"errors"
	"reflect"
	"testing"
)

// fakeService records lifecycle calls into a shared journal
type fakeService struct {
	name    string
	deps    []string
	journal *[]string
	initErr error
	runErr  error
	args    []any
}

func (f *fakeService) Name() string           { return f.name }
func (f *fakeService) Dependencies() []string { return f.deps }

func (f *fakeService) Init(args ...any) error {
	f.args = args
	*f.journal = append(*f.journal, "init:"+f.name)
	return f.initErr
}

func (f *fakeService) Start() error {
	*f.journal = append(*f.journal, "start:"+f.name)
	return f.runErr
}

func (f *fakeService) Stop() error {
	*f.journal = append(*f.journal, "stop:"+f.name)
	return nil
}

func TestHubLifecycleOrder(t *testing.T) {
	var journal []string
	h := NewHub()
	h.Register(&fakeService{name: "studio", deps: []string{"audio"}, journal: &journal})
	h.Register(&fakeService{name: "audio", journal: &journal}, true, 0.5)

	if err := h.InitAll(); err != nil {
		t.Fatalf("InitAll failed: %v", err)
	}
	if err := h.StartAll(); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	h.StopAll()

	want := []string{
		"init:audio", "init:studio",
		"start:audio", "start:studio",
		"stop:studio", "stop:audio",
	}
	if !reflect.DeepEqual(journal, want) {
		t.Errorf("Expected %v, got %v", want, journal)
	}

	audio, ok := Lookup[*fakeService](h, "audio")
	if !ok {
		t.Fatalf("Expected audio service registered")
	}
	if !reflect.DeepEqual(audio.args, []any{true, 0.5}) {
		t.Errorf("Expected registered args passed to Init, got %v", audio.args)
	}
}

func TestHubRegisterDuplicate(t *testing.T) {
	var journal []string
	h := NewHub()
	h.Register(&fakeService{name: "audio", journal: &journal})
	if err := h.Register(&fakeService{name: "audio", journal: &journal}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}

func TestHubDependencyErrors(t *testing.T) {
	var journal []string

	missing := NewHub()
	missing.Register(&fakeService{name: "studio", deps: []string{"audio"}, journal: &journal})
	if err := missing.InitAll(); !errors.Is(err, ErrMissingDep) {
		t.Errorf("Expected ErrMissingDep, got %v", err)
	}

	cyclic := NewHub()
	cyclic.Register(&fakeService{name: "a", deps: []string{"b"}, journal: &journal})
	cyclic.Register(&fakeService{name: "b", deps: []string{"a"}, journal: &journal})
	if _, err := cyclic.Order(); !errors.Is(err, ErrCycle) {
		t.Errorf("Expected ErrCycle, got %v", err)
	}
	if len(journal) != 0 {
		t.Errorf("Expected no lifecycle calls, got %v", journal)
	}
}

func TestHubInitRollback(t *testing.T) {
	var journal []string
	boom := errors.New("boom")
	h := NewHub()
	h.Register(&fakeService{name: "audio", journal: &journal})
	h.Register(&fakeService{name: "studio", deps: []string{"audio"}, journal: &journal, initErr: boom})

	if err := h.InitAll(); !errors.Is(err, boom) {
		t.Fatalf("Expected init error to propagate, got %v", err)
	}
	want := []string{"init:audio", "init:studio", "stop:audio"}
	if !reflect.DeepEqual(journal, want) {
		t.Errorf("Expected %v, got %v", want, journal)
	}
}

func TestHubStartRollback(t *testing.T) {
	var journal []string
	boom := errors.New("boom")
	h := NewHub()
	h.Register(&fakeService{name: "audio", journal: &journal})
	h.Register(&fakeService{name: "studio", deps: []string{"audio"}, journal: &journal, runErr: boom})

	h.InitAll()
	journal = nil
	if err := h.StartAll(); !errors.Is(err, boom) {
		t.Fatalf("Expected start error to propagate, got %v", err)
	}
	want := []string{"start:audio", "start:studio", "stop:audio"}
	if !reflect.DeepEqual(journal, want) {
		t.Errorf("Expected %v, got %v", want, journal)
	}

	journal = nil
	h.StopAll()
	if len(journal) != 0 {
		t.Errorf("Expected nothing left to stop, got %v", journal)
	}
}

func TestHubDeterministicOrder(t *testing.T) {
	var journal []string
	h := NewHub()
	for _, name := range []string{"c", "a", "b"} {
		h.Register(&fakeService{name: name, journal: &journal})
	}
	order, err := h.Order()
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"a", "b", "c"}) {
		t.Errorf("Expected name order for independent services, got %v", order)
	}
}
