package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type user struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestGet_DecodesData(t *testing.T) {
	srv := envelopeServer(t, 10000, "ok", `{"name":"Alice","age":30}`)
	defer srv.Close()

	c := mustNew(t, Config{BaseURL: srv.URL})

	got, err := Get[user](context.Background(), c, "/users/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Alice" || got.Age != 30 {
		t.Errorf("got %+v", got)
	}
}

func TestPost_SendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body user
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprintf(w, `{"code":10000,"message":"ok","data":{"name":%q,"age":%d}}`, body.Name, body.Age)
	}))
	defer srv.Close()

	c := mustNew(t, Config{BaseURL: srv.URL})

	got, err := Post[user](context.Background(), c, "/users", user{Name: "Bob", Age: 25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Bob" {
		t.Errorf("got %+v", got)
	}
}

func TestPut_And_Delete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"code":10000,"message":"ok","data":%q}`, r.Method)
	}))
	defer srv.Close()

	c := mustNew(t, Config{BaseURL: srv.URL})

	if got, err := Put[string](context.Background(), c, "/x", nil); err != nil || got != http.MethodPut {
		t.Errorf("Put = (%q, %v)", got, err)
	}
	if got, err := Delete[string](context.Background(), c, "/x"); err != nil || got != http.MethodDelete {
		t.Errorf("Delete = (%q, %v)", got, err)
	}
}

func TestCall_NullDataLeavesZeroValue(t *testing.T) {
	srv := envelopeServer(t, 10000, "ok", `null`)
	defer srv.Close()

	c := mustNew(t, Config{BaseURL: srv.URL})

	got, err := Get[user](context.Background(), c, "/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (user{}) {
		t.Errorf("got %+v, want zero value", got)
	}
}

func TestCall_BusinessErrorPassesThrough(t *testing.T) {
	srv := envelopeServer(t, 40001, "nope", `null`)
	defer srv.Close()

	c := mustNew(t, Config{BaseURL: srv.URL})

	_, err := Get[user](context.Background(), c, "/")
	if _, ok := AsBusiness(err); !ok {
		t.Errorf("expected business error, got %v", err)
	}
}

func TestRequestOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Tenant"); got != "acme" {
			t.Errorf("X-Tenant = %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "3" {
			t.Errorf("page = %q", got)
		}
		fmt.Fprint(w, `{"code":200,"message":"ok","data":null}`)
	}))
	defer srv.Close()

	c := mustNew(t, Config{BaseURL: srv.URL})

	_, err := Get[json.RawMessage](context.Background(), c, "/items",
		WithHeader("X-Tenant", "acme"),
		WithQueryParam("page", "3"),
		WithTimeout(5*time.Second),
		WithSuccessCode(200),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestOptions_CodeCheckDisabled(t *testing.T) {
	srv := envelopeServer(t, 40001, "nope", `null`)
	defer srv.Close()

	c := mustNew(t, Config{BaseURL: srv.URL})

	raw, err := Get[json.RawMessage](context.Background(), c, "/", WithCodeCheck(false), WithGlobalMessage(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Code != 40001 {
		t.Errorf("expected raw envelope, got %s (err %v)", raw, err)
	}
}
