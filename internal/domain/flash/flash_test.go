package flash_test

import (
	"sync"
	"testing"
	"time"

	"github.com/okian/agora/internal/domain/flash"
	"github.com/okian/agora/internal/domain/flash/flashtest"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given a detector with default thresholds", t, func() {
		d := flash.New()

		Convey("When the change is below the minimum", func() {
			_, _, ok := d.Classify(1.9)
			So(ok, ShouldBeFalse)
		})

		Convey("When the change meets the minimum", func() {
			typ, intensity, ok := d.Classify(2)
			So(ok, ShouldBeTrue)
			So(typ, ShouldEqual, flash.TypeUp)
			So(intensity, ShouldEqual, flash.IntensityLow)
		})

		Convey("When the change is at least twice the minimum", func() {
			typ, intensity, ok := d.Classify(-4)
			So(ok, ShouldBeTrue)
			So(typ, ShouldEqual, flash.TypeDown)
			So(intensity, ShouldEqual, flash.IntensityMedium)
		})

		Convey("When the change reaches the high threshold", func() {
			_, intensity, ok := d.Classify(10)
			So(ok, ShouldBeTrue)
			So(intensity, ShouldEqual, flash.IntensityHigh)
		})
	})

	Convey("Given a detector with a zero minimum", t, func() {
		d := flash.New(flash.WithMinChangeThreshold(0))

		Convey("Then a zero change is neutral", func() {
			typ, _, ok := d.Classify(0)
			So(ok, ShouldBeTrue)
			So(typ, ShouldEqual, flash.TypeNeutral)
		})
	})
}

func TestFlashLifecycle(t *testing.T) {
	Convey("Given a detector on a manual scheduler", t, func() {
		sched := flashtest.NewScheduler()
		d := flash.New(
			flash.WithScheduler(sched),
			flash.WithDuration(2*time.Second),
		)

		Convey("When a change of 5 is triggered", func() {
			So(d.Trigger("v1", 5), ShouldBeTrue)

			Convey("Then the item flashes immediately", func() {
				So(d.IsFlashing("v1"), ShouldBeTrue)
				st, ok := d.Get("v1")
				So(ok, ShouldBeTrue)
				So(st.Type, ShouldEqual, flash.TypeUp)
				So(st.Intensity, ShouldEqual, flash.IntensityMedium)
				So(st.Delta, ShouldEqual, 5)
			})

			Convey("And it clears once the duration elapses", func() {
				sched.Advance(1999 * time.Millisecond)
				So(d.IsFlashing("v1"), ShouldBeTrue)
				sched.Advance(time.Millisecond)
				So(d.IsFlashing("v1"), ShouldBeFalse)
				_, ok := d.Get("v1")
				So(ok, ShouldBeFalse)
			})

			Convey("And a second trigger before expiry resets the countdown", func() {
				sched.Advance(1500 * time.Millisecond)
				So(d.Trigger("v1", -12), ShouldBeTrue)

				sched.Advance(600 * time.Millisecond) // past the original deadline
				So(d.IsFlashing("v1"), ShouldBeTrue)
				st, _ := d.Get("v1")
				So(st.Type, ShouldEqual, flash.TypeDown)
				So(st.Intensity, ShouldEqual, flash.IntensityHigh)

				sched.Advance(1400 * time.Millisecond)
				So(d.IsFlashing("v1"), ShouldBeFalse)
				So(sched.Pending(), ShouldEqual, 0)
			})
		})

		Convey("When a change below the threshold is triggered", func() {
			So(d.Trigger("v2", 1), ShouldBeFalse)

			Convey("Then nothing flashes and nothing is scheduled", func() {
				So(d.IsFlashing("v2"), ShouldBeFalse)
				So(sched.Pending(), ShouldEqual, 0)
			})
		})

		Convey("When ClearAll runs with flashes pending", func() {
			d.Trigger("a", 3)
			d.Trigger("b", -3)
			So(sched.Pending(), ShouldEqual, 2)
			d.ClearAll()

			Convey("Then every pending clear is cancelled", func() {
				So(sched.Pending(), ShouldEqual, 0)
				So(d.Active(), ShouldBeEmpty)
			})

			Convey("And the detector keeps working", func() {
				So(d.Trigger("a", 3), ShouldBeTrue)
				So(d.IsFlashing("a"), ShouldBeTrue)
			})
		})

		Convey("When disposed", func() {
			d.Trigger("a", 3)
			d.Dispose()

			Convey("Then timers are cancelled and triggers are refused", func() {
				So(sched.Pending(), ShouldEqual, 0)
				So(d.Trigger("a", 30), ShouldBeFalse)
				So(d.IsFlashing("a"), ShouldBeFalse)
			})
		})
	})
}

func TestFlashHooksAndActive(t *testing.T) {
	Convey("Given a detector with hooks", t, func() {
		sched := flashtest.NewScheduler()
		var (
			mu      sync.Mutex
			flashed []string
			cleared []string
		)
		d := flash.New(
			flash.WithScheduler(sched),
			flash.WithOnFlash(func(s flash.State) {
				mu.Lock()
				defer mu.Unlock()
				flashed = append(flashed, s.ItemID)
			}),
			flash.WithOnClear(func(id string) {
				mu.Lock()
				defer mu.Unlock()
				cleared = append(cleared, id)
			}),
		)

		d.Trigger("b", 4)
		d.Trigger("a", 4)

		Convey("Then active flashes are ordered by id", func() {
			active := d.Active()
			So(len(active), ShouldEqual, 2)
			So(active[0].ItemID, ShouldEqual, "a")
			So(active[1].ItemID, ShouldEqual, "b")
		})

		Convey("And hooks observe start and clear", func() {
			sched.Advance(flash.DefaultDuration)
			mu.Lock()
			defer mu.Unlock()
			So(flashed, ShouldResemble, []string{"b", "a"})
			So(len(cleared), ShouldEqual, 2)
		})
	})
}

func TestObserve(t *testing.T) {
	Convey("Given a detector tracking values", t, func() {
		sched := flashtest.NewScheduler()
		d := flash.New(flash.WithScheduler(sched))

		Convey("When values are seen for the first time", func() {
			started := d.Observe(map[string]float64{"a": 40, "b": 60})

			Convey("Then only a baseline is recorded", func() {
				So(started, ShouldBeEmpty)
				So(d.Active(), ShouldBeEmpty)
			})

			Convey("And later significant changes flash", func() {
				started = d.Observe(map[string]float64{"a": 41, "b": 48, "c": 10})
				So(len(started), ShouldEqual, 1)
				So(started[0].ItemID, ShouldEqual, "b")
				So(started[0].Type, ShouldEqual, flash.TypeDown)
				So(started[0].Intensity, ShouldEqual, flash.IntensityHigh)
				So(d.IsFlashing("a"), ShouldBeFalse)
				So(d.IsFlashing("c"), ShouldBeFalse)
			})
		})
	})
}

func TestFlashWithRealTimers(t *testing.T) {
	Convey("Given a detector on real timers", t, func() {
		d := flash.New(flash.WithDuration(20 * time.Millisecond))
		defer d.Dispose()

		Convey("When a flash is triggered", func() {
			d.Trigger("v1", 5)
			So(d.IsFlashing("v1"), ShouldBeTrue)

			Convey("Then it clears on its own", func() {
				deadline := time.Now().Add(2 * time.Second)
				for d.IsFlashing("v1") && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				So(d.IsFlashing("v1"), ShouldBeFalse)
			})
		})
	})
}
