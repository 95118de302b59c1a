package attachments

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/emersion/go-message/mail"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	// Register charset decoders for non-UTF-8 mail parts.
	_ "github.com/emersion/go-message/charset"

	"emailwise/backend/internal/metrics"
)

// File is one uploaded attachment.
type File struct {
	Filename string
	Content  io.Reader
}

var ErrUnsupported = errors.New("unsupported attachment type")

type extractor func(data []byte) (string, error)

var extractors = map[string]extractor{
	".pdf":  extractPDF,
	".docx": extractDOCX,
	".txt":  extractText,
	".html": extractHTML,
	".htm":  extractHTML,
	".eml":  extractEML,
}

// Supported reports whether name has an extension Process can read.
func Supported(name string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Process concatenates the text of every readable attachment, each under its
// own header. Unsupported files are skipped and failing files leave an error
// marker; neither aborts the batch.
func Process(files []File, log zerolog.Logger) string {
	var sb strings.Builder
	for _, file := range files {
		kind := strings.ToLower(filepath.Ext(file.Filename))
		extract, ok := extractors[kind]
		if !ok {
			log.Warn().Str("filename", file.Filename).Msg("skipping unsupported attachment")
			metrics.RecordAttachment("unsupported", "skipped")
			continue
		}

		text, err := extractFile(file, extract)
		if err != nil {
			log.Error().Err(err).Str("filename", file.Filename).Msg("attachment extraction failed")
			metrics.RecordAttachment(strings.TrimPrefix(kind, "."), "failed")
			fmt.Fprintf(&sb, "\n\n--- Attachment: %s (Error extraction) ---\n", file.Filename)
			continue
		}
		metrics.RecordAttachment(strings.TrimPrefix(kind, "."), "ok")
		fmt.Fprintf(&sb, "\n\n--- Attachment: %s ---\n%s", file.Filename, text)
	}
	return sb.String()
}

func extractFile(file File, extract extractor) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract %s: %v", file.Filename, r)
		}
	}()
	if file.Content == nil {
		return "", fmt.Errorf("extract %s: no content", file.Filename)
	}
	data, err := io.ReadAll(file.Content)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file.Filename, err)
	}
	return extract(data)
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("pdf page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	text, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("convert docx: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func extractText(data []byte) (string, error) {
	return strings.ToValidUTF8(string(data), ""), nil
}

func extractHTML(data []byte) (string, error) {
	md, err := htmltomarkdown.ConvertString(string(data))
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return strings.TrimSpace(md), nil
}

func extractEML(data []byte) (string, error) {
	mr, err := mail.CreateReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse eml: %w", err)
	}
	defer mr.Close()

	var sb strings.Builder
	if from := mr.Header.Get("From"); from != "" {
		sb.WriteString("From: " + from + "\n")
	}
	if to := mr.Header.Get("To"); to != "" {
		sb.WriteString("To: " + to + "\n")
	}
	if subject, err := mr.Header.Subject(); err == nil && subject != "" {
		sb.WriteString("Subject: " + subject + "\n")
	}
	if date, err := mr.Header.Date(); err == nil && !date.IsZero() {
		sb.WriteString("Date: " + date.Format("2006-01-02 15:04:05") + "\n")
	}
	sb.WriteString("\n")

	var plainText, htmlText string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read eml part: %w", err)
		}
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := mime.ParseMediaType(h.Get("Content-Type"))
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		switch contentType {
		case "text/html":
			htmlText += string(body)
		case "text/plain", "":
			plainText += string(body)
		}
	}

	switch {
	case strings.TrimSpace(plainText) != "":
		sb.WriteString(strings.TrimSpace(plainText))
	case htmlText != "":
		md, err := htmltomarkdown.ConvertString(htmlText)
		if err != nil {
			sb.WriteString(htmlText)
		} else {
			sb.WriteString(strings.TrimSpace(md))
		}
	}
	return sb.String(), nil
}
