package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	dedupe "github.com/okian/leadtime/internal/domain/dedupe"
)

func TestInMemoryIndex(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new index", t, func() {
		d := dedupe.NewInMemoryIndex()

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
			_, ok := d.Lookup(ctx, "fp-1")
			So(ok, ShouldBeFalse)
		})

		Convey("When a fingerprint is remembered", func() {
			id, seen := d.Remember(ctx, "fp-1", "analysis-1")

			Convey("Then it is new and can be looked up", func() {
				So(seen, ShouldBeFalse)
				So(id, ShouldEqual, "analysis-1")
				So(d.Size(), ShouldEqual, 1)

				owner, ok := d.Lookup(ctx, "fp-1")
				So(ok, ShouldBeTrue)
				So(owner, ShouldEqual, "analysis-1")
			})

			Convey("And the same fingerprint arrives again", func() {
				id, seen := d.Remember(ctx, "fp-1", "analysis-2")

				Convey("Then the first owner is returned", func() {
					So(seen, ShouldBeTrue)
					So(id, ShouldEqual, "analysis-1")
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And it is forgotten", func() {
				d.Forget(ctx, "fp-1")

				Convey("Then it can be remembered under a new owner", func() {
					So(d.Size(), ShouldEqual, 0)
					id, seen := d.Remember(ctx, "fp-1", "analysis-3")
					So(seen, ShouldBeFalse)
					So(id, ShouldEqual, "analysis-3")
				})
			})
		})

		Convey("When forgetting an unknown fingerprint", func() {
			d.Forget(ctx, "missing")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded index", t, func() {
		d := dedupe.NewInMemoryIndex(dedupe.WithMaxSize(3))
		for i := 1; i <= 3; i++ {
			d.Remember(ctx, fmt.Sprintf("fp-%d", i), fmt.Sprintf("a-%d", i))
		}

		Convey("When one more fingerprint is remembered", func() {
			d.Remember(ctx, "fp-4", "a-4")

			Convey("Then the oldest is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				_, ok := d.Lookup(ctx, "fp-1")
				So(ok, ShouldBeFalse)
				for _, fp := range []string{"fp-2", "fp-3", "fp-4"} {
					_, ok := d.Lookup(ctx, fp)
					So(ok, ShouldBeTrue)
				}
			})
		})

		Convey("When a middle entry is forgotten and two are added", func() {
			d.Forget(ctx, "fp-2")
			d.Remember(ctx, "fp-4", "a-4")
			d.Remember(ctx, "fp-5", "a-5")

			Convey("Then eviction still follows insertion order", func() {
				So(d.Size(), ShouldEqual, 3)
				_, ok := d.Lookup(ctx, "fp-1")
				So(ok, ShouldBeFalse)
				_, ok = d.Lookup(ctx, "fp-3")
				So(ok, ShouldBeTrue)
			})
		})
	})

	Convey("Given an index of size one", t, func() {
		d := dedupe.NewInMemoryIndex(dedupe.WithMaxSize(1))
		d.Remember(ctx, "fp-1", "a-1")
		d.Remember(ctx, "fp-2", "a-2")

		Convey("Then only the newest survives", func() {
			So(d.Size(), ShouldEqual, 1)
			id, ok := d.Lookup(ctx, "fp-2")
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, "a-2")
		})
	})

	Convey("Given an unbounded index", t, func() {
		d := dedupe.NewInMemoryIndex(dedupe.WithMaxSize(-1))
		const n = 1000
		for i := 0; i < n; i++ {
			d.Remember(ctx, fmt.Sprintf("fp-%d", i), "a")
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, int64(n))
		})
	})
}

func TestIndexConcurrency(t *testing.T) {
	Convey("Given concurrent submitters of the same fingerprints", t, func() {
		d := dedupe.NewInMemoryIndex(dedupe.WithMaxSize(1000))
		const goroutines = 10
		const perGoroutine = 50
		owners := make([][]string, goroutines)

		var wg sync.WaitGroup
		for g := 0; g < goroutines; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for j := 0; j < perGoroutine; j++ {
					id, _ := d.Remember(context.Background(), fmt.Sprintf("fp-%d", j), fmt.Sprintf("a-%d-%d", g, j))
					owners[g] = append(owners[g], id)
				}
			}(g)
		}
		wg.Wait()

		Convey("Then every goroutine agrees on the owner of each fingerprint", func() {
			So(d.Size(), ShouldEqual, int64(perGoroutine))
			for j := 0; j < perGoroutine; j++ {
				for g := 1; g < goroutines; g++ {
					So(owners[g][j], ShouldEqual, owners[0][j])
				}
			}
		})
	})
}
