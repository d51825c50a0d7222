// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package pacing

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var epoch = time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

// pausesFor runs n slots through the policy and returns the indices at which
// the policy paused.
func pausesFor(ctx context.Context, p Policy, n int) []int {
	GinkgoHelper()
	pauses := []int{}
	for idx := 0; idx < n; idx++ {
		if Successful(p.AwaitSlot(ctx, idx)) {
			pauses = append(pauses, idx)
		}
	}
	return pauses
}

var _ = Describe("pacing", func() {

	Context("virtual clock", func() {

		It("fast-forwards", func(ctx context.Context) {
			c := NewVirtualClock(epoch)
			Expect(c.Sleep(ctx, time.Minute)).To(Succeed())
			c.Advance(time.Second)
			Expect(c.Now()).To(Equal(epoch.Add(61 * time.Second)))
			Expect(c.Sleeps()).To(HaveExactElements(time.Minute))
		})

		It("doesn't sleep when done", func(ctx context.Context) {
			c := NewVirtualClock(epoch)
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			Expect(c.Sleep(cctx, time.Minute)).To(MatchError(context.Canceled))
			Expect(c.Now()).To(Equal(epoch))
		})

	})

	It("sleeps for real", func(ctx context.Context) {
		start := time.Now()
		Expect(SystemClock{}.Sleep(ctx, 20*time.Millisecond)).To(Succeed())
		Expect(time.Since(start)).To(BeNumerically(">=", 20*time.Millisecond))

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		Expect(SystemClock{}.Sleep(cctx, time.Hour)).To(MatchError(context.Canceled))
	})

	Context("cooldown", func() {

		It("rejects invalid budgets", func() {
			Expect(NewCooldown(0, time.Minute, nil)).Error().To(HaveOccurred())
			Expect(NewCooldown(1, -time.Minute, nil)).Error().To(HaveOccurred())
		})

		DescribeTable("pauses floor((N-1)/R) times",
			func(ctx context.Context, n, limit int, expected []int) {
				clock := NewVirtualClock(epoch)
				p := Successful(NewCooldown(limit, DefaultCooldown, clock))
				Expect(pausesFor(ctx, p, n)).To(Equal(expected))
				Expect(clock.Sleeps()).To(HaveLen(len(expected)))
				Expect(clock.Now()).To(Equal(epoch.Add(time.Duration(len(expected)) * DefaultCooldown)))
			},
			Entry("nothing", 0, 45, []int{}),
			Entry("single", 1, 45, []int{}),
			Entry("exactly the budget", 45, 45, []int{}),
			Entry("one beyond the budget", 46, 45, []int{45}),
			Entry("twice the budget plus one", 91, 45, []int{45, 90}),
			Entry("limit of one", 4, 1, []int{1, 2, 3}),
			Entry("small limit", 7, 3, []int{3, 6}),
		)

		It("aborts pauses when cancelled", func(ctx context.Context) {
			p := Successful(NewCooldown(1, time.Hour, nil))
			cctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			paused, err := p.AwaitSlot(cctx, 1)
			Expect(paused).To(BeTrue())
			Expect(err).To(MatchError(context.DeadlineExceeded))
		})

	})

	Context("token bucket", func() {

		It("rejects invalid rates", func() {
			Expect(NewTokenBucket(0, time.Second)).Error().To(HaveOccurred())
			Expect(NewTokenBucket(1, 0)).Error().To(HaveOccurred())
		})

		It("spreads lookups", func(ctx context.Context) {
			p := Successful(NewTokenBucket(10, 500*time.Millisecond))
			start := time.Now()
			pauses := pausesFor(ctx, p, 4)
			Expect(pauses).To(HaveExactElements(1, 2, 3))
			Expect(time.Since(start)).To(BeNumerically(">=", 140*time.Millisecond))
		})

		It("gives up when cancelled", func(ctx context.Context) {
			p := Successful(NewTokenBucket(1, time.Hour))
			Expect(Successful(p.AwaitSlot(ctx, 0))).To(BeFalse())
			cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			_, err := p.AwaitSlot(cctx, 1)
			Expect(err).To(MatchError(context.DeadlineExceeded))
		})

	})

	It("shares a budget across runs", func(ctx context.Context) {
		clock := NewVirtualClock(epoch)
		p := NewShared(Successful(NewCooldown(5, DefaultCooldown, clock)))

		var wg sync.WaitGroup
		for run := 0; run < 4; run++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for idx := 0; idx < 5; idx++ {
					_ = Successful(p.AwaitSlot(ctx, idx))
				}
			}()
		}
		wg.Wait()
		// 20 lookups in total at a global budget of 5.
		Expect(clock.Sleeps()).To(HaveLen(3))
	})

	It("lets waiting runs give up while another run pauses", NodeTimeout(5*time.Second), func(ctx context.Context) {
		p := NewShared(Successful(NewCooldown(1, time.Hour, nil)))
		Expect(Successful(p.AwaitSlot(ctx, 0))).To(BeFalse())

		pausingctx, cancelPausing := context.WithCancel(ctx)
		defer cancelPausing()
		pausing := make(chan error, 1)
		go func() {
			_, err := p.AwaitSlot(pausingctx, 0)
			pausing <- err
		}()
		Eventually(func() int { return len(p.lock) }).Should(Equal(1))

		waitctx, cancelWait := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancelWait()
		start := time.Now()
		paused, err := p.AwaitSlot(waitctx, 0)
		Expect(err).To(MatchError(context.DeadlineExceeded))
		Expect(paused).To(BeFalse())
		Expect(time.Since(start)).To(BeNumerically("<", time.Second))

		cancelPausing()
		Eventually(pausing).Should(Receive(MatchError(context.Canceled)))
		Expect(p.lock).To(BeEmpty())
	})

})
