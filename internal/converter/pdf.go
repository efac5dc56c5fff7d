package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageSize is the MediaBox extent of a PDF page in points.
type PageSize struct {
	Page   int `json:"page"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func pdfConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func readPDF(rs io.ReadSeeker) (*model.Context, error) {
	ctx, err := api.ReadValidateAndOptimize(rs, pdfConfig())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx, nil
}

// PDFPageCount returns the number of pages in the document.
func PDFPageCount(rs io.ReadSeeker) (int, error) {
	ctx, err := readPDF(rs)
	if err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

// PDFPageSize returns the upper-right corner of the MediaBox of the
// zero-based page, truncated to integers.
func PDFPageSize(rs io.ReadSeeker, page int) (width, height int, err error) {
	ctx, err := readPDF(rs)
	if err != nil {
		return 0, 0, err
	}
	size, err := pageSize(ctx, page)
	if err != nil {
		return 0, 0, err
	}
	return size.Width, size.Height, nil
}

// PDFPageSizes returns the MediaBox size of every page.
func PDFPageSizes(rs io.ReadSeeker) ([]PageSize, error) {
	ctx, err := readPDF(rs)
	if err != nil {
		return nil, err
	}
	sizes := make([]PageSize, 0, ctx.PageCount)
	for page := 0; page < ctx.PageCount; page++ {
		size, err := pageSize(ctx, page)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}

func pageSize(ctx *model.Context, page int) (PageSize, error) {
	if page < 0 || page >= ctx.PageCount {
		return PageSize{}, fmt.Errorf("page %d out of range [0, %d)", page, ctx.PageCount)
	}
	_, _, attrs, err := ctx.PageDict(page+1, false)
	if err != nil {
		return PageSize{}, fmt.Errorf("page %d: %w", page, err)
	}
	if attrs == nil || attrs.MediaBox == nil {
		return PageSize{}, fmt.Errorf("page %d: no MediaBox", page)
	}
	return PageSize{
		Page:   page,
		Width:  int(attrs.MediaBox.UR.X),
		Height: int(attrs.MediaBox.UR.Y),
	}, nil
}

// PDFExtractPage writes a document holding only the zero-based page to w.
func PDFExtractPage(rs io.ReadSeeker, w io.Writer, page int) (err error) {
	start := time.Now()
	defer func() { observe("pdf_trim", start, err) }()

	if page < 0 {
		return fmt.Errorf("page %d out of range", page)
	}
	if err := api.Trim(rs, w, []string{strconv.Itoa(page + 1)}, pdfConfig()); err != nil {
		return fmt.Errorf("pdfcpu trim page %d: %w", page, err)
	}
	return nil
}

// ErrPDFPageRange is returned for a page index outside the document.
var ErrPDFPageRange = errors.New("pdf page out of range")

// PDFPageText extracts the text shown by Tj/TJ/' operators on the
// zero-based page. Fonts with custom encodings yield their raw codes.
func PDFPageText(rs io.ReadSeeker, page int) (string, error) {
	text, _, err := PDFText(context.Background(), rs, page)
	return text, err
}

// PDFText parses the document once and returns the text of the zero-based
// page along with the page count. A negative page selects every page; the
// page texts are then joined with form feeds.
func PDFText(ctx context.Context, rs io.ReadSeeker, page int) (text string, pages int, err error) {
	start := time.Now()
	defer func() { observe("pdf_text", start, err) }()

	doc, err := readPDF(rs)
	if err != nil {
		return "", 0, err
	}
	pages = doc.PageCount

	if page >= 0 {
		if page >= pages {
			return "", pages, fmt.Errorf("%w: page %d not in [0, %d)", ErrPDFPageRange, page, pages)
		}
		text, err = pageText(doc, page)
		return text, pages, err
	}

	texts := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", pages, err
		}
		t, err := pageText(doc, i)
		if err != nil {
			return "", pages, err
		}
		texts = append(texts, t)
	}
	return strings.Join(texts, "\f"), pages, nil
}

func pageText(doc *model.Context, page int) (string, error) {
	r, err := pdfcpu.ExtractPageContent(doc, page+1)
	if err != nil {
		return "", fmt.Errorf("extract content of page %d: %w", page, err)
	}
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read content of page %d: %w", page, err)
	}
	return textFromContentStream(data), nil
}

var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

func textFromContentStream(data []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			sb.WriteByte('\n')
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")), bytes.Equal(line, []byte("T*")):
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			val := int(c - '0')
			for j := 0; j < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; j++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
