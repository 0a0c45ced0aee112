package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

const articlePage = `<html><head><title>t</title><script>var x = 1;</script></head>
<body>
<nav>Menu Home Contato</nav>
<article>
<h1>Inversores solares</h1>
<p>O inversor converte corrente contínua em alternada.</p>
<table><tr><td>tabela ignorada</td></tr></table>
</article>
<footer>rodapé</footer>
</body></html>`

func TestExtractMainPrefersArticle(t *testing.T) {
	text, err := NewExtractor().ExtractMain(articlePage)
	if err != nil {
		t.Fatalf("ExtractMain() error = %v", err)
	}
	if !strings.Contains(text, "Inversores solares") || !strings.Contains(text, "corrente contínua") {
		t.Fatalf("article text missing: %q", text)
	}
	for _, noise := range []string{"Menu Home", "rodapé", "var x", "tabela ignorada"} {
		if strings.Contains(text, noise) {
			t.Fatalf("noise %q kept in %q", noise, text)
		}
	}
}

func TestExtractMainDropsReaderComments(t *testing.T) {
	page := `<html><body>
<div class="post"><p>Compression reduces dynamic range.</p></div>
<div id="comments">
<div class="comment"><p>First! Great post, buy cheap plugins here.</p></div>
<div id="comment-42" class="comment-body"><p>Thanks for sharing.</p></div>
</div>
</body></html>`

	text, err := NewExtractor().ExtractMain(page)
	if err != nil {
		t.Fatalf("ExtractMain() error = %v", err)
	}
	if text != "Compression reduces dynamic range." {
		t.Fatalf("expected only the post text, got %q", text)
	}
}

func TestExtractMainFallsBackToBody(t *testing.T) {
	text, err := NewExtractor().ExtractMain(`<html><body><p>apenas corpo</p></body></html>`)
	if err != nil {
		t.Fatalf("ExtractMain() error = %v", err)
	}
	if text != "apenas corpo" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestFetchReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	body, err := NewFetcher(time.Second).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if body != articlePage {
		t.Fatalf("unexpected body")
	}
}

func TestFetchStatusErrors(t *testing.T) {
	status := http.StatusNotFound
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	f := NewFetcher(time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent error for 404, got %v", err)
	}

	status = http.StatusBadGateway
	_, err = f.Fetch(context.Background(), srv.URL)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error for 502, got %v", err)
	}
}

func TestFetchRejectsBinaryContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF"))
	}))
	defer srv.Close()

	if _, err := NewFetcher(time.Second).Fetch(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected content type error")
	}
}
