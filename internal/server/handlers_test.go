package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/citsci/scirec/pkg/journal"
)

type fakeSyncer struct {
	added int
	total int
	err   error

	gotIncremental bool
}

func (f *fakeSyncer) Sync(ctx context.Context, incremental bool) (int, error) {
	f.gotIncremental = incremental
	if f.err != nil {
		return 0, f.err
	}
	return f.added, nil
}

func (f *fakeSyncer) Len() int { return f.total }

type fakeRecommender struct {
	uids []string
	err  error

	gotAddress string
	gotCount   int
	gotMax     float64
}

func (f *fakeRecommender) Recommend(ctx context.Context, address string, count int, maxDistanceKm float64) ([]string, error) {
	f.gotAddress = address
	f.gotCount = count
	f.gotMax = maxDistanceKm
	return f.uids, f.err
}

type fakeJournal struct {
	recorded []journal.Run
}

func (f *fakeJournal) RecordRun(ctx context.Context, r journal.Run) error {
	f.recorded = append(f.recorded, r)
	return nil
}

func (f *fakeJournal) RecentRuns(ctx context.Context, limit int) ([]journal.Run, error) {
	return f.recorded, nil
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)
	return rec
}

func TestHandleUpdate(t *testing.T) {
	syncer := &fakeSyncer{added: 3, total: 10}
	j := &fakeJournal{}
	s := New(syncer, &fakeRecommender{}, j)

	rec := serve(s, http.MethodPost, "/update")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp updateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.NewRows != 3 || resp.TotalRows != 10 {
		t.Errorf("unexpected body %+v", resp)
	}
	if !syncer.gotIncremental {
		t.Error("update should default to incremental sync")
	}
	if len(j.recorded) != 1 || j.recorded[0].Mode != "incremental" {
		t.Errorf("sync run not journaled: %+v", j.recorded)
	}
}

func TestHandleUpdate_FullRebuild(t *testing.T) {
	syncer := &fakeSyncer{added: 5, total: 5}
	s := New(syncer, &fakeRecommender{}, nil)

	rec := serve(s, http.MethodPost, "/update?incremental=false")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if syncer.gotIncremental {
		t.Error("incremental=false should request a full rebuild")
	}
}

func TestHandleUpdate_SyncError(t *testing.T) {
	s := New(&fakeSyncer{err: errors.New("catalog unreachable")}, &fakeRecommender{}, nil)

	rec := serve(s, http.MethodPost, "/update")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHandleRecommendations(t *testing.T) {
	engine := &fakeRecommender{uids: []string{"a", "b"}}
	s := New(&fakeSyncer{}, engine, nil)

	rec := serve(s, http.MethodGet, "/recommendations?address=203.0.113.7&count=2&max_distance=100")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp recommendationsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Address != "203.0.113.7" || resp.MaxRecommendations != 2 || resp.MaxDistanceKm != 100 {
		t.Errorf("parameters not echoed: %+v", resp)
	}
	if len(resp.Recommendations) != 2 || resp.Recommendations[0] != "a" {
		t.Errorf("unexpected recommendations %v", resp.Recommendations)
	}
	if engine.gotAddress != "203.0.113.7" || engine.gotCount != 2 || engine.gotMax != 100 {
		t.Errorf("engine called with wrong arguments: %+v", engine)
	}
}

func TestHandleRecommendations_Defaults(t *testing.T) {
	engine := &fakeRecommender{}
	s := New(&fakeSyncer{}, engine, nil)

	rec := serve(s, http.MethodGet, "/recommendations?address=203.0.113.7")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if engine.gotCount != defaultCount {
		t.Errorf("expected default count %d, got %d", defaultCount, engine.gotCount)
	}
	if engine.gotMax != 0 {
		t.Errorf("expected unbounded distance, got %f", engine.gotMax)
	}
}

func TestHandleRecommendations_MissingAddress(t *testing.T) {
	engine := &fakeRecommender{uids: []string{"should-not-appear"}}
	s := New(&fakeSyncer{}, engine, nil)

	rec := serve(s, http.MethodGet, "/recommendations")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var resp recommendationsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Recommendations) != 0 {
		t.Errorf("no address should mean no recommendations, got %v", resp.Recommendations)
	}
	if engine.gotAddress != "" {
		t.Error("engine should not be called without an address")
	}
}

func TestHandleRecommendations_BadParams(t *testing.T) {
	s := New(&fakeSyncer{}, &fakeRecommender{}, nil)

	for _, target := range []string{
		"/recommendations?address=x&count=ten",
		"/recommendations?address=x&max_distance=close",
		"/recommendations?address=x&max_distance=-5",
	} {
		rec := serve(s, http.MethodGet, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestHandleSyncs(t *testing.T) {
	j := &fakeJournal{recorded: []journal.Run{{Mode: "full", NewRows: 7, TotalRows: 7}}}
	s := New(&fakeSyncer{}, &fakeRecommender{}, j)

	rec := serve(s, http.MethodGet, "/api/syncs")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var runs []journal.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(runs) != 1 || runs[0].NewRows != 7 {
		t.Errorf("unexpected runs %+v", runs)
	}
}

func TestHandleSyncs_JournalDisabled(t *testing.T) {
	s := New(&fakeSyncer{}, &fakeRecommender{}, nil)

	rec := serve(s, http.MethodGet, "/api/syncs")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a journal, got %d", rec.Code)
	}
}
