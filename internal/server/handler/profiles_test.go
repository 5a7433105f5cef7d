package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/tracelight/casegate/internal/server/db"
)

func profilesRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := db.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	r := gin.New()
	r.GET("/v1/profiles/:uid", HandleGetProfile(store))
	r.PUT("/v1/profiles/:uid", HandlePutProfile(store))
	r.DELETE("/v1/profiles/:uid", HandleDeleteProfile(store))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestGetProfile_NotFound(t *testing.T) {
	r := profilesRouter(t)
	w := doJSON(t, r, http.MethodGet, "/v1/profiles/u-missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestPutProfile_CreateThenMerge(t *testing.T) {
	r := profilesRouter(t)

	w := doJSON(t, r, http.MethodPut, "/v1/profiles/u1", `{"email":"e@lab.test","firstName":"Ada"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	var created db.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if created.Permitted {
		t.Error("new profile should default to permitted=false")
	}
	if created.Cases == nil || len(created.Cases) != 0 {
		t.Errorf("new profile cases = %v, want empty list", created.Cases)
	}

	// A partial update keeps the fields it does not mention.
	w = doJSON(t, r, http.MethodPut, "/v1/profiles/u1", `{"permitted":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", w.Code, w.Body.String())
	}
	var updated db.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !updated.Permitted {
		t.Error("permitted not updated")
	}
	if updated.Email != "e@lab.test" || updated.FirstName != "Ada" {
		t.Errorf("unmentioned fields changed: %+v", updated)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Error("createdAt changed on update")
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) && updated.UpdatedAt != created.UpdatedAt {
		t.Errorf("updatedAt went backwards: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}
}

func TestPutProfile_CasesReplacedAndSorted(t *testing.T) {
	r := profilesRouter(t)

	doJSON(t, r, http.MethodPut, "/v1/profiles/u1",
		`{"cases":[{"caseNumber":"10"},{"caseNumber":"2"},{"caseNumber":"1A"},{"caseNumber":"1B"}]}`)

	w := doJSON(t, r, http.MethodGet, "/v1/profiles/u1", "")
	var p db.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"1A", "1B", "2", "10"}
	if len(p.Cases) != len(want) {
		t.Fatalf("got %d cases", len(p.Cases))
	}
	for i, c := range p.Cases {
		if c.CaseNumber != want[i] {
			t.Fatalf("cases[%d] = %q, want %q", i, c.CaseNumber, want[i])
		}
	}

	// Supplying cases again replaces the whole list.
	doJSON(t, r, http.MethodPut, "/v1/profiles/u1", `{"cases":[{"caseNumber":"99"}]}`)
	w = doJSON(t, r, http.MethodGet, "/v1/profiles/u1", "")
	var p2 db.Profile
	json.Unmarshal(w.Body.Bytes(), &p2)
	if len(p2.Cases) != 1 || p2.Cases[0].CaseNumber != "99" {
		t.Fatalf("case list not replaced: %+v", p2.Cases)
	}

	// Omitting cases leaves the list alone.
	doJSON(t, r, http.MethodPut, "/v1/profiles/u1", `{"lastName":"Lovelace"}`)
	w = doJSON(t, r, http.MethodGet, "/v1/profiles/u1", "")
	var p3 db.Profile
	json.Unmarshal(w.Body.Bytes(), &p3)
	if len(p3.Cases) != 1 {
		t.Fatalf("case list changed by unrelated update: %+v", p3.Cases)
	}
}

func TestPutProfile_BadBody(t *testing.T) {
	r := profilesRouter(t)

	w := doJSON(t, r, http.MethodPut, "/v1/profiles/u1", `{"cases":[{}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d for case without caseNumber, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPut, "/v1/profiles/u1", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d for malformed body, body %s", w.Code, w.Body.String())
	}
}

func TestDeleteProfile_Idempotent(t *testing.T) {
	r := profilesRouter(t)

	doJSON(t, r, http.MethodPut, "/v1/profiles/u1", `{"email":"e@lab.test"}`)

	w := doJSON(t, r, http.MethodDelete, "/v1/profiles/u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = doJSON(t, r, http.MethodDelete, "/v1/profiles/u1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("repeat delete status = %d, want 200", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/v1/profiles/u1", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("profile still present after delete, status = %d", w.Code)
	}
}
