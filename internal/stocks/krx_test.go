package stocks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestKRXSource_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != krxListingPath {
			t.Errorf("path = %s, want %s", r.URL.Path, krxListingPath)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"OutBlock_1":[
			{"ISU_SRT_CD":"005930","ISU_ABBRV":"삼성전자","MKT_NM":"KOSPI"},
			{"ISU_SRT_CD":"035720","ISU_ABBRV":"카카오","MKT_NM":"KOSPI"},
			{"ISU_SRT_CD":"","ISU_ABBRV":"dropped","MKT_NM":"KOSDAQ"}
		]}`))
	}))
	defer srv.Close()

	listing, err := NewKRXSource(srv.URL).List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(listing) != 2 {
		t.Fatalf("listing size = %d, want 2 (empty code dropped)", len(listing))
	}
	if listing[0].Code != "005930" || listing[0].Name != "삼성전자" || listing[0].Market != "KOSPI" {
		t.Errorf("first row = %+v", listing[0])
	}
}

func TestKRXSource_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewKRXSource(srv.URL).List(context.Background()); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestKRXSource_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>blocked</html>"))
	}))
	defer srv.Close()

	if _, err := NewKRXSource(srv.URL).List(context.Background()); err == nil {
		t.Error("expected error for non-JSON response")
	}
}
