package meta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScraper_Preview(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/og":
			w.Write([]byte(`<!doctype html><html><head>
				<meta property="og:title" content="OG Title"/>
				<meta property="og:description" content="OG Description"/>
				<meta property="og:image" content="https://img.example.com/x.png"/>
				<title>Plain Title</title>
				</head><body></body></html>`))
		case "/plain":
			w.Write([]byte(`<html><head><title>Plain Title</title></head><body></body></html>`))
		case "/empty":
			w.Write([]byte(`<html><head></head><body></body></html>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s := NewScraper(nil)

	p := s.Preview(context.Background(), srv.URL+"/og", "My Link")
	assert.Equal(t, "OG Title", p.Title)
	assert.Equal(t, "OG Description", p.Description)
	assert.Equal(t, "https://img.example.com/x.png", p.Image)

	// no og tags - fall back to <title> and the default description
	p = s.Preview(context.Background(), srv.URL+"/plain", "My Link")
	assert.Equal(t, "Plain Title", p.Title)
	assert.Equal(t, "Shared link", p.Description)

	// nothing at all - fall back to the link name
	p = s.Preview(context.Background(), srv.URL+"/empty", "My Link")
	assert.Equal(t, "My Link", p.Title)

	// 404 destination degrades to defaults
	p = s.Preview(context.Background(), srv.URL+"/missing", "My Link")
	assert.Equal(t, Default("My Link"), p)
}

func TestScraper_PreviewUnreachable(t *testing.T) {
	s := NewScraper(nil)

	p := s.Preview(context.Background(), "http://127.0.0.1:1/", "Fallback Name")
	assert.Equal(t, "Fallback Name", p.Title)
	assert.Equal(t, "Shared link", p.Description)
}

func TestScraper_PreviewNoURL(t *testing.T) {
	s := NewScraper(nil)
	assert.Equal(t, Default("n"), s.Preview(context.Background(), "", "n"))
}
