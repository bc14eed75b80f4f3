package notify

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestNew(t *testing.T) {
	if n := New[int](); n == nil {
		t.Fatal("New() returned nil")
	}
}

func TestNotifier_Subscribe(t *testing.T) {
	n := New[string]()

	var got []string
	sub := n.Subscribe(func(e string) {
		got = append(got, e)
	})

	n.Notify("first")
	sub.Unsubscribe()
	n.Notify("second")

	if len(got) != 1 || got[0] != "first" {
		t.Errorf("received %v, want [first]", got)
	}
}

func TestNotifier_SubscriptionOrder(t *testing.T) {
	n := New[int]()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		n.Subscribe(func(int) { order = append(order, i) })
	}

	n.Notify(0)

	if len(order) != 5 {
		t.Fatalf("calls = %d, want 5", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want ascending", order)
		}
	}
}

func TestNotifier_UnsubscribeTwice(t *testing.T) {
	n := New[int]()

	var aCalls, bCalls int
	a := n.Subscribe(func(int) { aCalls++ })
	n.Subscribe(func(int) { bCalls++ })

	a.Unsubscribe()
	a.Unsubscribe()
	n.Notify(1)

	if aCalls != 0 || bCalls != 1 {
		t.Errorf("calls = %d, %d, want 0, 1", aCalls, bCalls)
	}
}

func TestNotifier_NilObserver(t *testing.T) {
	n := New[int]()

	sub := n.Subscribe(nil)
	sub.Unsubscribe()
	n.Notify(1)

	var nilSub *Subscription
	nilSub.Unsubscribe()
}

func TestNotifier_ObserverMayUnsubscribe(t *testing.T) {
	n := New[int]()

	var calls int
	var sub *Subscription
	sub = n.Subscribe(func(int) {
		calls++
		sub.Unsubscribe()
	})

	n.Notify(1)
	n.Notify(2)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestNotifier_ObserverMaySubscribe(t *testing.T) {
	n := New[int]()

	var inner atomic.Int32
	var once sync.Once
	n.Subscribe(func(int) {
		once.Do(func() {
			n.Subscribe(func(int) { inner.Add(1) })
		})
	})

	n.Notify(1) // the new observer joins after this event
	n.Notify(2)

	if got := inner.Load(); got != 1 {
		t.Errorf("inner calls = %d, want 1", got)
	}
}

func TestNotifier_ConcurrentNotifyDeliversEveryEvent(t *testing.T) {
	n := New[int]()

	var received atomic.Int64
	n.Subscribe(func(int) { received.Add(1) })

	const workers, perWorker = 8, 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				// Churn subscriptions while events are sent.
				sub := n.Subscribe(func(int) {})
				n.Notify(i)
				sub.Unsubscribe()
			}
		}()
	}
	wg.Wait()

	if got := received.Load(); got != workers*perWorker {
		t.Errorf("received = %d, want %d", got, workers*perWorker)
	}
}
