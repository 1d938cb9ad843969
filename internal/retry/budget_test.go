package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeEvaler struct {
	counters map[string]int64
	fail     bool
}

func newFakeEvaler() *fakeEvaler { return &fakeEvaler{counters: map[string]int64{}} }

func (f *fakeEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	if f.fail {
		return nil, errors.New("transport down")
	}
	partnerLimit := int64(args[0].(int))
	vkLimit := int64(args[1].(int))

	f.counters[keys[0]]++
	f.counters[keys[1]]++

	if f.counters[keys[0]] > partnerLimit {
		return int64(-1), nil
	}
	if f.counters[keys[1]] > vkLimit {
		return int64(-2), nil
	}
	return int64(1), nil
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestBudgetDeniesOverLimit(t *testing.T) {
	fe := newFakeEvaler()
	b := NewBudget(fe, discardLogger(), 2, 300)

	for i := 0; i < 2; i++ {
		ok, _, err := b.Allow(context.Background(), "stripe", "vk1")
		if err != nil || !ok {
			t.Fatalf("expected admission %d, got ok=%v err=%v", i, ok, err)
		}
	}

	ok, scope, err := b.Allow(context.Background(), "stripe", "vk1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatal("expected 3rd retry over partner limit=2 to be denied")
	}
	if scope != DeniedByPartner {
		t.Fatalf("expected denial attributed to partner scope, got %q", scope)
	}
}

func TestBudgetAttributesVKDenial(t *testing.T) {
	fe := newFakeEvaler()
	b := NewBudget(fe, discardLogger(), 300, 1)

	if ok, _, err := b.Allow(context.Background(), "stripe", "vk1"); err != nil || !ok {
		t.Fatalf("expected first retry admitted, got ok=%v err=%v", ok, err)
	}

	ok, scope, err := b.Allow(context.Background(), "stripe", "vk1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatal("expected 2nd retry over vk limit=1 to be denied")
	}
	if scope != DeniedByVK {
		t.Fatalf("expected denial attributed to vk scope, got %q", scope)
	}
}

func TestBudgetFailsOpenOnTransportError(t *testing.T) {
	fe := newFakeEvaler()
	fe.fail = true
	b := NewBudget(fe, discardLogger(), 1, 1)

	ok, _, err := b.Allow(context.Background(), "stripe", "vk1")
	if err != nil {
		t.Fatalf("expected nil error on fail-open, got %v", err)
	}
	if !ok {
		t.Fatal("expected fail-open to admit the retry")
	}
}

func TestNewBudgetAppliesDefaults(t *testing.T) {
	b := NewBudget(newFakeEvaler(), discardLogger(), 0, 0)
	if b.partnerRetriesPerMin != DefaultPartnerRetriesPerMin {
		t.Fatalf("expected default partner limit, got %d", b.partnerRetriesPerMin)
	}
	if b.vkRetriesPerMin != DefaultVKRetriesPerMin {
		t.Fatalf("expected default vk limit, got %d", b.vkRetriesPerMin)
	}
}
