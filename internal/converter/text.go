package converter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"preview-generator/internal/logging"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TextToText returns the source stream unchanged; the text preview is
// an exact copy of the input bytes.
func TextToText(r io.Reader) io.Reader {
	logging.Debug("Converting text to text")
	return r
}

// TextToHTML writes a standalone HTML document with the source text inside
// a <pre> element. Invalid UTF-8 sequences are replaced with U+FFFD.
func TextToHTML(r io.Reader, w io.Writer, title string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read text: %w", err)
	}
	text := strings.ToValidUTF8(string(data), "�")

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	head := element(atom.Head)
	head.AppendChild(&html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Meta,
		Data:     "meta",
		Attr:     []html.Attribute{{Key: "charset", Val: "utf-8"}},
	})
	titleNode := element(atom.Title)
	titleNode.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	head.AppendChild(titleNode)

	body := element(atom.Body)
	pre := element(atom.Pre)
	pre.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	body.AppendChild(pre)

	root.AppendChild(head)
	root.AppendChild(body)
	doc.AppendChild(root)

	bw := bufio.NewWriter(w)
	if err := html.Render(bw, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return bw.Flush()
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

var htmlPolicy = bluemonday.UGCPolicy()

// SanitizeHTML copies an HTML document to w with scripts, event handlers
// and other active content removed.
func SanitizeHTML(r io.Reader, w io.Writer) error {
	if err := htmlPolicy.SanitizeReaderToWriter(r, w); err != nil {
		return fmt.Errorf("sanitize html: %w", err)
	}
	return nil
}
