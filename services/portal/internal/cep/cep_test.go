package cep

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/01001000/json/":
			_, _ = w.Write([]byte(`{"cep":"01001-000","logradouro":"Praça da Sé","complemento":"lado ímpar","bairro":"Sé","localidade":"São Paulo","uf":"SP"}`))
		case "/99999999/json/":
			_, _ = w.Write([]byte(`{"erro": true}`))
		case "/88888888/json/":
			_, _ = w.Write([]byte(`{"erro": "true"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()
	c := New(srv.URL, srv.Client())

	addr, err := c.Lookup(context.Background(), "01001-000")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if addr.Street != "Praça da Sé" || addr.City != "São Paulo" || addr.State != "SP" || addr.ZipCode != "01001000" {
		t.Fatalf("unexpected address %+v", addr)
	}

	for _, code := range []string{"99999-999", "88888888"} {
		if _, err := c.Lookup(context.Background(), code); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: expected ErrNotFound, got %v", code, err)
		}
	}
	if _, err := c.Lookup(context.Background(), "123"); !errors.Is(err, ErrInvalidCEP) {
		t.Fatalf("expected ErrInvalidCEP, got %v", err)
	}
	if _, err := c.Lookup(context.Background(), "11111111"); err == nil {
		t.Fatal("expected error on 500")
	}
}
