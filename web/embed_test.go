package web

import (
	"io/fs"
	"strings"
	"testing"
)

func TestFS(t *testing.T) {
	for _, name := range []string{"index.html", "app.js", "style.css"} {
		data, err := fs.ReadFile(FS(), name)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", name, err)
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	index, _ := fs.ReadFile(FS(), "index.html")
	if !strings.Contains(string(index), "app.js") {
		t.Error("index.html does not load app.js")
	}
}

func TestHTTP(t *testing.T) {
	f, err := HTTP().Open("/index.html")
	if err != nil {
		t.Fatalf("Failed to open index.html: %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if info.IsDir() {
		t.Error("index.html is a directory")
	}
}

func TestClientMarksOrigin(t *testing.T) {
	app, err := fs.ReadFile(FS(), "app.js")
	if err != nil {
		t.Fatalf("Failed to read app.js: %v", err)
	}
	if !strings.Contains(string(app), `classList.add("origin")`) {
		t.Error("app.js does not mark the origin circle")
	}

	style, err := fs.ReadFile(FS(), "style.css")
	if err != nil {
		t.Fatalf("Failed to read style.css: %v", err)
	}
	if !strings.Contains(string(style), "#board circle.origin") {
		t.Error("style.css has no origin style")
	}
}
