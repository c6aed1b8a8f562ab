package ids_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/rescuemesh/engine/pkg/ids"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIDPrefixes(t *testing.T) {
	Convey("Given the id minters", t, func() {
		Convey("Then each id carries its wire prefix", func() {
			So(ids.NewVictimID(), ShouldStartWith, "V-")
			So(ids.NewMissionID(), ShouldStartWith, "M-")
			So(ids.NewRequestID(), ShouldStartWith, "REQ-")
			So(ids.NewAlertID(), ShouldStartWith, "ALERT-")
		})
	})
}

func TestIDUniquenessUnderConcurrency(t *testing.T) {
	Convey("Given many goroutines minting victim ids", t, func() {
		const goroutines = 16
		const perGoroutine = 200

		var mu sync.Mutex
		seen := make(map[string]struct{}, goroutines*perGoroutine)

		var wg sync.WaitGroup
		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < perGoroutine; j++ {
					id := ids.NewVictimID()
					mu.Lock()
					seen[id] = struct{}{}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then no id is issued twice", func() {
			So(len(seen), ShouldEqual, goroutines*perGoroutine)
		})

		Convey("And every id is well formed", func() {
			for id := range seen {
				So(strings.Count(id, "-"), ShouldEqual, 2)
			}
		})
	})
}
