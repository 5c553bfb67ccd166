package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager()

			Convey("Then it owns a private registry", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Registry(), ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
			})
		})

		Convey("When two managers are created", func() {
			Convey("Then their registrations do not collide", func() {
				So(func() { NewManager(); NewManager() }, ShouldNotPanic)
			})
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a manager on a custom registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(registry), WithNamespace("test"))
		hooks := m.Hooks()
		ctx := context.Background()

		Convey("When lifecycle hooks fire", func() {
			hooks.OnTransition(ctx, &domain.TransitionEvent{To: domain.PhaseEnded, Source: "local"})
			hooks.OnAction(ctx, &domain.ActionEvent{Type: domain.ActionTally})
			hooks.OnAction(ctx, &domain.ActionEvent{Type: domain.ActionURL, Err: errors.New("blocked")})
			hooks.OnPublish(ctx, &domain.ResponseEvent{Type: domain.ActionTally})

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(m.transitions.WithLabelValues("Ended", "local")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.actions.WithLabelValues("Tally", "ok")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.actions.WithLabelValues("URL", "error")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.eventsPublished.WithLabelValues("Tally")), ShouldEqual, 1)
			})
		})

		Convey("When subscribers come and go", func() {
			closeSSE := m.SubscriberOpened("sse")
			m.SubscriberOpened("ws")
			closeSSE()

			Convey("Then the gauge tracks open connections", func() {
				So(testutil.ToFloat64(m.subscribers.WithLabelValues("sse")), ShouldEqual, 0)
				So(testutil.ToFloat64(m.subscribers.WithLabelValues("ws")), ShouldEqual, 1)
			})
		})

		Convey("When votes, writes and requests are recorded", func() {
			m.RecordVotes("AB23", 3)
			m.RecordVotes("AB23", 0)
			m.RecordStateWrite("AB23")
			m.ObserveHTTP("GET", "/health", 200, 5*time.Millisecond)

			Convey("Then the handler exposes them", func() {
				rec := httptest.NewRecorder()
				m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
				body := rec.Body.String()

				So(rec.Code, ShouldEqual, http.StatusOK)
				So(body, ShouldContainSubstring, `test_tally_votes_total{code="AB23"} 3`)
				So(body, ShouldContainSubstring, `test_state_writes_total{code="AB23"} 1`)
				So(strings.Contains(body, `test_http_requests_total{method="GET",route="/health",status="200"} 1`), ShouldBeTrue)
			})
		})
	})
}

func TestManagerDisabled(t *testing.T) {
	Convey("Given a disabled manager", t, func() {
		m := NewManager(WithMetricsEnabled(false))
		m.RecordVotes("AB23", 2)
		m.SubscriberOpened("sse")()

		Convey("Then nothing is recorded", func() {
			So(testutil.ToFloat64(m.votes.WithLabelValues("AB23")), ShouldEqual, 0)
		})
	})
}
