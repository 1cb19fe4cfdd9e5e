package matching

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAccountLocks_SerializesSameAccount(t *testing.T) {
	locks := newAccountLocks()
	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.withAccountLock("acct-1", func() {
				n := atomic.AddInt32(&active, 1)
				for {
					m := atomic.LoadInt32(&maxActive)
					if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&active, -1)
			})
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("max concurrent holders of the same account lock = %d, want 1", maxActive)
	}
}

func TestAccountLocks_DifferentAccountsRunConcurrently(t *testing.T) {
	locks := newAccountLocks()
	var wg sync.WaitGroup
	started := make(chan struct{}, 2)

	release := make(chan struct{})
	for _, acct := range []string{"acct-1", "acct-2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			locks.withAccountLock(id, func() {
				started <- struct{}{}
				<-release
			})
		}(acct)
	}

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first account lock never acquired")
	}
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("second account did not run concurrently with the first")
	}
	close(release)
	wg.Wait()
}
