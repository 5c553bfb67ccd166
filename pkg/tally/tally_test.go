package tally_test

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/aretw0/liveslides/pkg/tally"
	. "github.com/smartystreets/goconvey/convey"
)

func vote(answer string) domain.ResponseEvent {
	return domain.ResponseEvent{Type: domain.ActionTally, Answer: answer, ClientID: "c1"}
}

func raw(evt domain.ResponseEvent) json.RawMessage {
	data, _ := json.Marshal(evt)
	return data
}

func TestAggregator(t *testing.T) {
	Convey("Given a new Aggregator", t, func() {
		agg := tally.New()

		Convey("When nothing was counted", func() {
			Convey("Then the view is a single placeholder entry", func() {
				So(agg.Total(), ShouldEqual, 0)
				So(agg.Entries(), ShouldResemble, []tally.Entry{{Label: tally.PlaceholderLabel}})
			})
		})

		Convey("When Tally events arrive", func() {
			for _, a := range []string{"Yes", "No", "Yes", "Yes"} {
				So(agg.Add(vote(a)), ShouldBeTrue)
			}

			Convey("Then counts and percentages follow first-seen order", func() {
				So(agg.Total(), ShouldEqual, 4)
				So(agg.Entries(), ShouldResemble, []tally.Entry{
					{Label: "Yes", Value: 3, Percent: 75},
					{Label: "No", Value: 1, Percent: 25},
				})
			})

			Convey("And Reset clears them", func() {
				agg.Reset()
				So(agg.Total(), ShouldEqual, 0)
				So(agg.Count("Yes"), ShouldEqual, 0)
			})
		})

		Convey("When other event types arrive", func() {
			So(agg.Add(domain.ResponseEvent{Type: domain.ActionStream, Message: "hi"}), ShouldBeFalse)
			So(agg.Add(domain.ResponseEvent{Type: "Custom", Answer: "Yes"}), ShouldBeFalse)

			Convey("Then they are ignored", func() {
				So(agg.Total(), ShouldEqual, 0)
			})
		})

		Convey("When an answer is empty", func() {
			agg.Add(vote(""))

			Convey("Then it counts as Other", func() {
				So(agg.Count(tally.OtherLabel), ShouldEqual, 1)
			})
		})

		Convey("When the same message is delivered twice", func() {
			evt := vote("Yes")
			evt.SID = "same-id"
			agg.Add(evt)
			agg.Add(evt)

			Convey("Then both deliveries count", func() {
				So(agg.Count("Yes"), ShouldEqual, 2)
			})
		})

		Convey("When consuming raw stream messages", func() {
			ok, err := agg.Consume(raw(vote("Maybe")))
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			_, err = agg.Consume([]byte("{not json"))
			So(err, ShouldNotBeNil)

			Convey("Then only valid messages count", func() {
				So(agg.Total(), ShouldEqual, 1)
			})
		})

		Convey("When percentages do not divide evenly", func() {
			agg.Add(vote("A"))
			agg.Add(vote("B"))
			agg.Add(vote("B"))

			Convey("Then they are rounded to one decimal", func() {
				entries := agg.Entries()
				So(entries[0].Percent, ShouldEqual, 33.3)
				So(entries[1].Percent, ShouldEqual, 66.7)
			})
		})
	})
}

func TestAggregator_Monotonicity(t *testing.T) {
	Convey("Given N random Tally messages from a finite set", t, func() {
		answers := []string{"Yes", "No", "Maybe", ""}
		rng := rand.New(rand.NewSource(42))
		agg := tally.New()
		want := map[string]int{}

		const n = 1000
		for i := 0; i < n; i++ {
			a := answers[rng.Intn(len(answers))]
			agg.Add(vote(a))
			if a == "" {
				a = tally.OtherLabel
			}
			want[a]++
		}

		Convey("Then the counts sum to N and match per answer", func() {
			sum := 0
			for _, v := range agg.Counts() {
				sum += v
			}
			So(sum, ShouldEqual, n)
			So(agg.Counts(), ShouldResemble, want)
		})
	})
}

func TestPercent(t *testing.T) {
	Convey("Percent handles an empty total", t, func() {
		So(tally.Percent(3, 0), ShouldEqual, 0)
		So(tally.Percent(1, 8), ShouldEqual, 12.5)
	})
}

func TestLog(t *testing.T) {
	Convey("Given a Log limited to 2 events", t, func() {
		l := tally.NewLog(2)
		l.Add(vote("first"))
		l.Add(vote("second"))
		l.Add(vote("third"))

		Convey("Then it keeps the newest events first", func() {
			events := l.Events()
			So(l.Len(), ShouldEqual, 2)
			So(events[0].Answer, ShouldEqual, "third")
			So(events[1].Answer, ShouldEqual, "second")
		})
	})
}

func TestBoard(t *testing.T) {
	Convey("Given a Board", t, func() {
		var flushed []tally.Snapshot
		board := tally.NewBoard(tally.WithOnFlush(func(s tally.Snapshot) {
			flushed = append(flushed, s)
		}))

		Convey("When messages are pushed", func() {
			board.Push(raw(vote("Yes")))
			board.Push(raw(domain.ResponseEvent{Type: domain.ActionStream, Message: "hello"}))
			board.Push(json.RawMessage("garbage"))

			Convey("Then nothing is applied before a flush", func() {
				So(board.Snapshot().Total, ShouldEqual, 0)
			})

			Convey("Then a flush applies them in one step", func() {
				So(board.Flush(context.Background()), ShouldEqual, 2)
				snap := board.Snapshot()
				So(snap.Total, ShouldEqual, 1)
				So(len(snap.Recent), ShouldEqual, 2)
				So(snap.Recent[0].Message, ShouldEqual, "hello")
				So(len(flushed), ShouldEqual, 1)

				Convey("And an empty flush is a no-op", func() {
					So(board.Flush(context.Background()), ShouldEqual, 0)
					So(len(flushed), ShouldEqual, 1)
				})
			})
		})
	})
}

func TestBoard_Run(t *testing.T) {
	Convey("Given a running Board", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		board := tally.NewBoard(tally.WithFlushInterval(10 * time.Millisecond))
		snaps := board.Watch(ctx)
		So((<-snaps).Entries[0].Label, ShouldEqual, tally.PlaceholderLabel)

		msgs := make(chan json.RawMessage)
		done := make(chan error, 1)
		go func() { done <- board.Run(ctx, msgs) }()

		msgs <- raw(vote("Yes"))
		msgs <- raw(vote("No"))

		Convey("Then watchers see the flushed totals", func() {
			deadline := time.After(2 * time.Second)
			total := 0
			for total < 2 {
				select {
				case s := <-snaps:
					total = s.Total
				case <-deadline:
					So(total, ShouldEqual, 2)
					return
				}
			}
			So(total, ShouldEqual, 2)

			close(msgs)
			So(<-done, ShouldBeNil)
		})
	})
}
