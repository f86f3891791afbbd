package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/agora/internal/adapters/http/api"
	service "github.com/okian/agora/internal/app"
	"github.com/okian/agora/internal/domain/flash"
	"github.com/okian/agora/internal/domain/model"
	"github.com/okian/agora/internal/domain/subscription"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDeps records calls and returns canned results.
type mockDeps struct {
	pushErr   error
	seen      map[string]bool
	pushed    []model.Update
	evaluated [][]model.Decision
	flashes   map[string]flash.State
	feedReq   service.FeedRequest
	feedErr   error
	started   bool
}

func newMockDeps() *mockDeps {
	return &mockDeps{
		seen:    make(map[string]bool),
		flashes: make(map[string]flash.State),
		started: true,
	}
}

func (m *mockDeps) PushUpdate(_ context.Context, u model.Update) (service.PushResult, error) {
	if m.pushErr != nil {
		return service.PushResult{}, m.pushErr
	}
	if u.ID == "" {
		u.ID = "generated"
	}
	if m.seen[u.ID] {
		return service.PushResult{ID: u.ID, Duplicate: true}, nil
	}
	m.seen[u.ID] = true
	m.pushed = append(m.pushed, u)
	return service.PushResult{ID: u.ID}, nil
}

func (m *mockDeps) EvaluateDecisions(_ context.Context, decisions []model.Decision) service.Evaluation {
	m.evaluated = append(m.evaluated, decisions)
	views := make([]service.DecisionView, len(decisions))
	for i, d := range decisions {
		views[i] = service.DecisionView{ID: d.ID}
	}
	return service.Evaluation{Decisions: views, Events: subscription.Events{New: decisions}}
}

func (m *mockDeps) FlashState(id string) (flash.State, bool) {
	st, ok := m.flashes[id]
	return st, ok
}

func (m *mockDeps) ActiveFlashes() []flash.State {
	out := make([]flash.State, 0, len(m.flashes))
	for _, st := range m.flashes {
		out = append(out, st)
	}
	return out
}

func (m *mockDeps) RankFeed(_ context.Context, req service.FeedRequest) (service.Feed, error) {
	m.feedReq = req
	if m.feedErr != nil {
		return service.Feed{}, m.feedErr
	}
	return service.Feed{Items: []service.FeedItem{}}, nil
}

func (m *mockDeps) GetStats() service.Stats {
	return service.Stats{Started: m.started, Tracked: []string{"d1"}}
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decisionJSON(id string) string {
	endsAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
	return fmt.Sprintf(`{"id":%q,"type":"vote","ends_at":%q,"tally":{"support":3,"oppose":1,"abstain":0}}`, id, endsAt)
}

func TestDecisionRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newMockDeps()
		h := api.NewServer(deps).Router()

		Convey("When evaluating a valid decision list", func() {
			rec := do(h, http.MethodPost, "/decisions/evaluate", `{"decisions":[`+decisionJSON("d1")+`]}`)

			Convey("Then the evaluation is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.evaluated, ShouldHaveLength, 1)
				So(deps.evaluated[0][0].Tally.Support, ShouldEqual, 3)

				var ev service.Evaluation
				So(json.Unmarshal(rec.Body.Bytes(), &ev), ShouldBeNil)
				So(ev.Decisions[0].ID, ShouldEqual, "d1")
				So(ev.Events.New, ShouldHaveLength, 1)
			})
		})

		Convey("When a decision is missing its id", func() {
			rec := do(h, http.MethodPost, "/decisions/evaluate", `{"decisions":[`+decisionJSON("")+`]}`)

			Convey("Then it is a bad request", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "missing id")
				So(deps.evaluated, ShouldBeEmpty)
			})
		})

		Convey("When a decision carries an unknown result or type", func() {
			endsAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
			badResult := fmt.Sprintf(`{"id":"d1","type":"vote","ends_at":%q,"result":"bogus"}`, endsAt)
			badType := fmt.Sprintf(`{"id":"d1","type":"poll","ends_at":%q}`, endsAt)
			known := fmt.Sprintf(`{"id":"d1","type":"election","ends_at":%q,"result":"elected"}`, endsAt)

			Convey("Then unknown values are bad requests", func() {
				rec := do(h, http.MethodPost, "/decisions/evaluate", `{"decisions":[`+badResult+`]}`)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "unknown result")

				rec = do(h, http.MethodPost, "/decisions/updates", `{"decisions":[`+badType+`]}`)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, "unknown type")

				So(deps.evaluated, ShouldBeEmpty)
				So(deps.pushed, ShouldBeEmpty)
			})

			Convey("And known values are accepted", func() {
				rec := do(h, http.MethodPost, "/decisions/evaluate", `{"decisions":[`+known+`]}`)
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the body is malformed", func() {
			So(do(h, http.MethodPost, "/decisions/evaluate", `{"decisions":`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/decisions/evaluate", `{"unknown":1}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/decisions/evaluate", `{} {}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When pushing an update", func() {
			body := `{"id":"u1","decisions":[` + decisionJSON("d1") + `]}`
			rec := do(h, http.MethodPost, "/decisions/updates", body)

			Convey("Then it is accepted", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(rec.Body.String(), ShouldContainSubstring, `"status":"accepted"`)
				So(deps.pushed, ShouldHaveLength, 1)
			})

			Convey("And a redelivery is acknowledged as a duplicate", func() {
				rec := do(h, http.MethodPost, "/decisions/updates", body)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"duplicate":true`)
				So(deps.pushed, ShouldHaveLength, 1)
			})
		})

		Convey("When the queue is full", func() {
			deps.pushErr = fmt.Errorf("%w: queue full", service.ErrBackpressure)
			rec := do(h, http.MethodPost, "/decisions/updates", `{"id":"u2","decisions":[]}`)

			Convey("Then backpressure is reported", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
				So(rec.Body.String(), ShouldContainSubstring, "backpressure")
			})
		})

		Convey("When the service is stopped", func() {
			deps.pushErr = service.ErrStopped
			rec := do(h, http.MethodPost, "/decisions/updates", `{"id":"u3","decisions":[]}`)

			Convey("Then the service is unavailable", func() {
				So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestFlashRoutes(t *testing.T) {
	Convey("Given an API server with one active flash", t, func() {
		deps := newMockDeps()
		deps.flashes["d1"] = flash.State{ItemID: "d1", Type: flash.TypeUp, Intensity: flash.IntensityHigh, Delta: 12}
		h := api.NewServer(deps).Router()

		Convey("When fetching the flashing decision", func() {
			rec := do(h, http.MethodGet, "/flash/d1", "")

			Convey("Then its state is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var st flash.State
				So(json.Unmarshal(rec.Body.Bytes(), &st), ShouldBeNil)
				So(st.Intensity, ShouldEqual, flash.IntensityHigh)
				So(st.Delta, ShouldEqual, 12)
			})
		})

		Convey("When fetching an idle decision", func() {
			rec := do(h, http.MethodGet, "/flash/d2", "")

			Convey("Then it is not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When listing active flashes", func() {
			rec := do(h, http.MethodGet, "/flash", "")

			Convey("Then every flash is listed", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var states []flash.State
				So(json.Unmarshal(rec.Body.Bytes(), &states), ShouldBeNil)
				So(states, ShouldHaveLength, 1)
			})
		})
	})
}

func TestFeedRoute(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newMockDeps()
		h := api.NewServer(deps).Router()
		body := `{"items":[{"id":"c1","type":"post"}],"user":{"user_id":"me"},"limit":5}`

		Convey("When ranking with query overrides", func() {
			rec := do(h, http.MethodPost, "/feed/rank?limit=2&diversity=true&min_reason=60", body)

			Convey("Then the overrides reach the service", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.feedReq.Limit, ShouldEqual, 2)
				So(deps.feedReq.Diversity, ShouldBeTrue)
				So(*deps.feedReq.MinReason, ShouldEqual, 60)
				So(deps.feedReq.Items, ShouldHaveLength, 1)
				So(deps.feedReq.User.UserID, ShouldEqual, "me")
			})
		})

		Convey("When ranking without overrides", func() {
			rec := do(h, http.MethodPost, "/feed/rank", body)

			Convey("Then the body values are used", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.feedReq.Limit, ShouldEqual, 5)
				So(deps.feedReq.MinReason, ShouldBeNil)
			})
		})

		Convey("When query parameters are invalid", func() {
			So(do(h, http.MethodPost, "/feed/rank?limit=0", body).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/feed/rank?limit=abc", body).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/feed/rank?diversity=maybe", body).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/feed/rank?min_reason=-1", body).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the service rejects the request", func() {
			deps.feedErr = fmt.Errorf("%w: limit must not be negative", service.ErrBadRequest)

			Convey("Then it is a bad request", func() {
				So(do(h, http.MethodPost, "/feed/rank", body).Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newMockDeps()
		h := api.NewServer(deps).Router()

		Convey("When the service is started", func() {
			rec := do(h, http.MethodGet, "/healthz", "")

			Convey("Then health is ok", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})

		Convey("When the service is not started", func() {
			deps.started = false

			Convey("Then health reports unavailable", func() {
				So(do(h, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When fetching stats", func() {
			rec := do(h, http.MethodGet, "/stats", "")

			Convey("Then service stats are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var stats service.Stats
				So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
				So(stats.Tracked, ShouldResemble, []string{"d1"})
			})
		})

		Convey("When scraping metrics after traffic", func() {
			_ = do(h, http.MethodGet, "/stats", "")
			rec := do(h, http.MethodGet, "/metrics", "")

			Convey("Then the http request counter is exported", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "agora_")
			})
		})

		Convey("When the method is not allowed", func() {
			So(do(h, http.MethodGet, "/decisions/evaluate", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
