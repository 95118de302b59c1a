package attachments

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := []struct{ name, content string }{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
			`</Types>`},
		{"word/document.xml", `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`},
	}
	for _, entry := range entries {
		w, err := zw.Create(entry.name)
		if err != nil {
			t.Fatalf("create %s: %v", entry.name, err)
		}
		if _, err := w.Write([]byte(entry.content)); err != nil {
			t.Fatalf("write %s: %v", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestProcessText(t *testing.T) {
	out := Process([]File{{Filename: "notes.txt", Content: strings.NewReader("hello\xffworld")}}, zerolog.Nop())
	want := "\n\n--- Attachment: notes.txt ---\nhelloworld"
	if out != want {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestProcessDOCX(t *testing.T) {
	data := buildDOCX(t, `<w:p><w:r><w:t>First line</w:t></w:r></w:p><w:p><w:r><w:t>Second</w:t></w:r><w:r><w:t xml:space="preserve"> line</w:t></w:r></w:p>`)
	out := Process([]File{{Filename: "Report.DOCX", Content: bytes.NewReader(data)}}, zerolog.Nop())
	if !strings.HasPrefix(out, "\n\n--- Attachment: Report.DOCX ---\n") {
		t.Fatalf("missing header in %q", out)
	}
	if !strings.Contains(out, "First line") || !strings.Contains(out, "Second") || strings.Contains(out, "Error extraction") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestProcessHTML(t *testing.T) {
	out := Process([]File{{Filename: "page.html", Content: strings.NewReader("<h1>Title</h1><p>Body <strong>text</strong></p>")}}, zerolog.Nop())
	if !strings.Contains(out, "# Title") || !strings.Contains(out, "**text**") {
		t.Fatalf("expected markdown, got %q", out)
	}
}

func TestProcessEML(t *testing.T) {
	raw := "From: Alice <alice@example.com>\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: Quarterly numbers\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Please review the attached figures.\r\n"
	out := Process([]File{{Filename: "fwd.eml", Content: strings.NewReader(raw)}}, zerolog.Nop())
	if !strings.Contains(out, "Subject: Quarterly numbers") {
		t.Fatalf("expected subject header, got %q", out)
	}
	if !strings.Contains(out, "Please review the attached figures.") {
		t.Fatalf("expected body, got %q", out)
	}
}

func TestProcessSkipsUnsupported(t *testing.T) {
	out := Process([]File{{Filename: "image.png", Content: strings.NewReader("png")}}, zerolog.Nop())
	if out != "" {
		t.Fatalf("expected unsupported file to be skipped, got %q", out)
	}
}

func TestProcessMarksFailures(t *testing.T) {
	files := []File{
		{Filename: "broken.docx", Content: strings.NewReader("not a zip")},
		{Filename: "lost.txt", Content: failingReader{}},
		{Filename: "ok.txt", Content: strings.NewReader("fine")},
	}
	out := Process(files, zerolog.Nop())
	for _, want := range []string{
		"\n\n--- Attachment: broken.docx (Error extraction) ---\n",
		"\n\n--- Attachment: lost.txt (Error extraction) ---\n",
		"\n\n--- Attachment: ok.txt ---\nfine",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestSupported(t *testing.T) {
	if !Supported("a.PDF") || !Supported("b.htm") || Supported("c.xlsx") {
		t.Fatalf("unexpected Supported results")
	}
}
