package routes

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"obstarget/internal/model"
	"obstarget/internal/service/target"

	"github.com/gin-gonic/gin"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *target.TargetService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := target.NewTargetService(nil, nil)
	svc.Add(model.NewTarget(3, 2001, "r", math.Pi/4, -math.Pi/6, math.Pi/2, 2, []float64{15, 15}))

	r := gin.New()
	SetupMainHandlers(r.Group(""), svc, map[string]string{"port": ":8080"})
	SetupTargetHandlers(r.Group("/api"), svc)
	return r, svc
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doRequest(r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("Expected ok status, got %s", w.Body.String())
	}
}

func TestGetTarget(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/targets/3", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	got := &model.Target{}
	if err := got.FromJSON(w.Body.Bytes()); err != nil {
		t.Fatalf("response is not a target: %v", err)
	}
	if got.TargetID != 3 || got.FieldID != 2001 || got.Filter != "r" {
		t.Errorf("Unexpected target %v", got)
	}
}

func TestGetTargetErrors(t *testing.T) {
	r, _ := setupTestRouter(t)

	if w := doRequest(r, http.MethodGet, "/api/targets/99", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown id, got %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/api/targets/abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad id, got %d", w.Code)
	}
}

func TestSummary(t *testing.T) {
	r, svc := setupTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/targets/3/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	stored, _ := svc.Get(3)
	if w.Body.String() != stored.String() {
		t.Errorf("Expected %q, got %q", stored.String(), w.Body.String())
	}
}

func TestReplaceTarget(t *testing.T) {
	r, svc := setupTestRouter(t)

	src := model.NewTarget(3, 7, "g", 1, 0.5, 0.25, 1, []float64{30})
	body, _ := src.ToJSON()

	w := doRequest(r, http.MethodPut, "/api/targets/3", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	stored, _ := svc.Get(3)
	if stored.Filter != "g" || stored.FieldID != 7 {
		t.Errorf("Expected replaced target, got %v", stored)
	}
}

func TestReplaceTargetRejectsBadBodies(t *testing.T) {
	r, svc := setupTestRouter(t)

	cases := map[string]string{
		"missing field": `{"targetid": 3, "fieldid": 1}`,
		"invalid json":  `{"targetid":`,
	}
	src := model.NewTarget(4, 7, "g", 1, 0.5, 0.25, 1, []float64{30})
	mismatch, _ := src.ToJSON()
	cases["id mismatch"] = string(mismatch)

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := doRequest(r, http.MethodPut, "/api/targets/3", body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}
		})
	}

	stored, _ := svc.Get(3)
	if stored.Filter != "r" {
		t.Errorf("Expected target unchanged, got filter %s", stored.Filter)
	}
}

func TestAddFromTopic(t *testing.T) {
	r, svc := setupTestRouter(t)

	body := `{"targetId": 10, "filter": "z", "ra": 45, "decl": -30, "skyAngle": 90, "numExposures": 2, "exposureTimes": [15, 15]}`
	w := doRequest(r, http.MethodPost, "/api/targets/topic", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	stored, err := svc.Get(10)
	if err != nil {
		t.Fatalf("Expected target 10 to be stored: %v", err)
	}
	if stored.FieldID != model.NoField {
		t.Errorf("Expected fieldid %d, got %d", model.NoField, stored.FieldID)
	}
	if math.Abs(stored.RARad-math.Pi/4) > 1e-12 {
		t.Errorf("Expected ra_rad pi/4, got %v", stored.RARad)
	}
}

func TestDriverState(t *testing.T) {
	r, svc := setupTestRouter(t)

	body := `{"alt_rad": 1, "az_rad": 2, "rot_rad": 3, "telalt_rad": 4, "telaz_rad": 5, "telrot_rad": 6, "ang_rad": 0.5}`
	w := doRequest(r, http.MethodPut, "/api/targets/3/driver-state", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	stored, _ := svc.Get(3)
	if stored.AltRad != 1 || stored.TelRotRad != 6 || stored.AngRad != 0.5 {
		t.Errorf("Expected driver state copied, got %v", stored)
	}

	// every driver field is required
	w = doRequest(r, http.MethodPut, "/api/targets/3/driver-state", `{"alt_rad": 1}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for partial driver state, got %d", w.Code)
	}
}

func TestConditions(t *testing.T) {
	r, svc := setupTestRouter(t)

	body := `{"time": 100, "airmass": 1.2, "sky_brightness": 20.5, "cloud": 0.1, "seeing": 0.8, "slewtime": 4}`
	w := doRequest(r, http.MethodPut, "/api/targets/3/conditions", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	stored, _ := svc.Get(3)
	if stored.Airmass != 1.2 || stored.SlewTime != 4 {
		t.Errorf("Expected conditions applied, got %v", stored)
	}
}

func TestExpTimeOverride(t *testing.T) {
	r, svc := setupTestRouter(t)

	w := doRequest(r, http.MethodPut, "/api/targets/3/exp-time", `{"exp_time": 45}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	stored, _ := svc.Get(3)
	if stored.ExpTime() != 45 {
		t.Errorf("Expected override 45, got %v", stored.ExpTime())
	}

	w = doRequest(r, http.MethodPut, "/api/targets/3/exp-time", `{"exp_time": null}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	stored, _ = svc.Get(3)
	if stored.ExpTime() != 30 {
		t.Errorf("Expected summed exposure 30 after clear, got %v", stored.ExpTime())
	}
}

func TestDeleteTarget(t *testing.T) {
	r, svc := setupTestRouter(t)

	if w := doRequest(r, http.MethodDelete, "/api/targets/3", ""); w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}
	if svc.Count() != 0 {
		t.Errorf("Expected no targets, got %d", svc.Count())
	}
	if w := doRequest(r, http.MethodDelete, "/api/targets/3", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", w.Code)
	}
}

func TestExportGeoJSON(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/export/targets.geojson", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&fc); err != nil {
		t.Fatalf("decode geojson: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Errorf("Expected one feature collection entry, got %s with %d", fc.Type, len(fc.Features))
	}
}

func TestGetTargetWithNonFiniteValues(t *testing.T) {
	r, svc := setupTestRouter(t)
	if _, err := svc.UpdateConditions(3, target.Conditions{Airmass: math.NaN(), SlewTime: math.Inf(1)}); err != nil {
		t.Fatalf("UpdateConditions failed: %v", err)
	}

	for _, path := range []string{"/api/targets/3", "/api/targets"} {
		w := doRequest(r, http.MethodGet, path, "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), `"airmass":NaN`) || !strings.Contains(w.Body.String(), `"slewtime":Infinity`) {
			t.Errorf("%s: expected non-finite values in body, got %s", path, w.Body.String())
		}
	}

	if w := doRequest(r, http.MethodGet, "/api/export/targets.geojson", ""); w.Code != http.StatusOK {
		t.Errorf("Expected export to succeed, got %d: %s", w.Code, w.Body.String())
	}
}
