//go:build integration || !unit

package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"rentals/internal/adapters/csvsource"
	server "rentals/internal/adapters/http_server"
	redisad "rentals/internal/adapters/redis"
	"rentals/internal/app"
	"rentals/internal/domain"
	"rentals/internal/storage/memory"
)

const feed = `user_id,user_name,user_email,user_role,prop_id,prop_title,prop_owner_user_id,prop_price,prop_amenities,photo_id,photo_prop_id,photo_url,rev_id,rev_prop_id,rev_reviewer_user_id,rev_rating
u1,Ann,ann@x.com,PropertyOwner,p1,Loft,u1,120.50,"wifi, pool",ph1,p1,http://img/1,,,,
u2,Bob,bob@x.com,Guest,,,,,,,,,rv1,p1,u2,4.5
`

type env struct {
	srv    *httptest.Server
	redis  *miniredis.Miniredis
	dir    string
	client *http.Client
}

func setup(t *testing.T) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rc.Close() })

	store := memory.New()
	loads := app.NewLoadService(csvsource.New(), store, app.LoadOptions{
		Tx:     domain.TxOptions{MaxWait: time.Second, Timeout: 5 * time.Second},
		Cache:  rc,
		Locker: rc.Locker(),
	}, zerolog.Nop())

	dir := t.TempDir()
	s := server.New(zerolog.Nop(), 10*time.Second)
	s.MountHandlers(&server.Handlers{
		Q:         app.NewQueryService(store, rc, time.Minute),
		Loads:     loads,
		SourceDir: dir,
	})
	ts := httptest.NewServer(s.Mux())
	t.Cleanup(ts.Close)
	return &env{srv: ts, redis: mr, dir: dir, client: ts.Client()}
}

func (e *env) get(t *testing.T, path string, dst any) int {
	t.Helper()
	resp, err := e.client.Get(e.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if dst != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func (e *env) load(t *testing.T, name string) (app.LoadReport, int) {
	t.Helper()
	resp, err := e.client.Post(e.srv.URL+"/v1/loads", "application/json", strings.NewReader(`{"source":"`+name+`"}`))
	if err != nil {
		t.Fatalf("POST /v1/loads: %v", err)
	}
	defer resp.Body.Close()
	var rep app.LoadReport
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
			t.Fatalf("decode report: %v", err)
		}
	}
	return rep, resp.StatusCode
}

func TestE2E_LoadThenRead(t *testing.T) {
	e := setup(t)
	if err := os.WriteFile(filepath.Join(e.dir, "feed.csv"), []byte(feed), 0o600); err != nil {
		t.Fatal(err)
	}

	if code := e.get(t, "/v1/properties/p1", nil); code != http.StatusNotFound {
		t.Fatalf("before load: want 404, got %d", code)
	}

	rep, code := e.load(t, "feed.csv")
	if code != http.StatusOK {
		t.Fatalf("load: status %d", code)
	}
	if rep.Status != app.StatusApplied || rep.Committed[app.StepProperties] != 1 || rep.Committed[app.StepReviews] != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if e.redis.Exists("rentals:load:lock") {
		t.Fatalf("lock not released")
	}

	var pv domain.PropertyView
	if code := e.get(t, "/v1/properties/p1", &pv); code != http.StatusOK {
		t.Fatalf("property: %d", code)
	}
	if pv.OwnerUserID != "u1" || pv.PricePerNight.String() != "120.5" || len(pv.Photos) != 1 {
		t.Fatalf("unexpected property view: %+v", pv)
	}
	if len(pv.Amenities) != 2 || pv.Amenities[0] != "wifi" || pv.Amenities[1] != "pool" {
		t.Fatalf("amenities: %v", pv.Amenities)
	}
	if !e.redis.Exists("property:p1") {
		t.Fatalf("property view should be cached after a read")
	}

	var reviews []domain.Review
	if code := e.get(t, "/v1/properties/p1/reviews", &reviews); code != http.StatusOK || len(reviews) != 1 {
		t.Fatalf("reviews: %d %v", code, reviews)
	}
	var owned []domain.Property
	if code := e.get(t, "/v1/owners/u1/properties", &owned); code != http.StatusOK || len(owned) != 1 {
		t.Fatalf("owner properties: %d %v", code, owned)
	}

	// rerun: nothing new, caches for the touched keys evicted
	rep, code = e.load(t, "feed.csv")
	if code != http.StatusOK {
		t.Fatalf("reload: status %d", code)
	}
	for step, n := range rep.Committed {
		if n != 0 {
			t.Fatalf("reload inserted %d rows in %s", n, step)
		}
	}
	for _, k := range []string{"property:p1", "reviews:p1", "owner:u1:properties"} {
		if e.redis.Exists(k) {
			t.Fatalf("%s not evicted", k)
		}
	}
}

func TestE2E_LoadErrors(t *testing.T) {
	e := setup(t)

	if _, code := e.load(t, "missing.csv"); code != http.StatusUnprocessableEntity {
		t.Fatalf("missing source: want 422, got %d", code)
	}

	if err := os.WriteFile(filepath.Join(e.dir, "feed.csv"), []byte(feed), 0o600); err != nil {
		t.Fatal(err)
	}
	// another process holds the lock
	if err := e.redis.Set("rentals:load:lock", "someone-else"); err != nil {
		t.Fatal(err)
	}
	if _, code := e.load(t, "feed.csv"); code != http.StatusConflict {
		t.Fatalf("held lock: want 409, got %d", code)
	}
	if code := e.get(t, "/v1/properties/p1", nil); code != http.StatusNotFound {
		t.Fatalf("nothing should be committed while locked, got %d", code)
	}
}
