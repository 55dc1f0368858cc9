package nfse

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// utf8BOM may precede the XML declaration in files exported on Windows.
var utf8BOM = []byte("\xEF\xBB\xBF")

// element is one node of a parsed document, kept in document order.
type element struct {
	prefix string
	local  string
	text   strings.Builder
}

func (e *element) qualifiedName() string {
	if e.prefix == "" {
		return e.local
	}
	return e.prefix + ":" + e.local
}

// Document is a parsed XML document flattened into its elements in document order.
// Each element carries its full text content (all descendant character data).
type Document struct {
	elements []*element
}

// ParseDocument parses raw XML. Any well-formedness problem fails the whole
// document with ErrMalformedDocument.
func ParseDocument(raw []byte) (*Document, error) {
	const op = "ParseDocument"

	raw = bytes.TrimPrefix(raw, utf8BOM)

	decoder := xml.NewDecoder(bytes.NewReader(raw))
	decoder.Strict = true
	// Many issuers still declare ISO-8859-1.
	decoder.CharsetReader = charset.NewReaderLabel

	doc := &Document{}
	var open []*element
	roots := 0

	for {
		// RawToken keeps prefixes as written so qualified-name lookups work;
		// element nesting is verified with the open stack below.
		tok, err := decoder.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", op, ErrMalformedDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(open) == 0 {
				roots++
				if roots > 1 {
					return nil, fmt.Errorf("%s: %w: more than one root element", op, ErrMalformedDocument)
				}
			}
			el := &element{prefix: t.Name.Space, local: t.Name.Local}
			doc.elements = append(doc.elements, el)
			open = append(open, el)
		case xml.EndElement:
			if len(open) == 0 {
				return nil, fmt.Errorf("%s: %w: unexpected end element </%s>", op, ErrMalformedDocument, t.Name.Local)
			}
			top := open[len(open)-1]
			if top.prefix != t.Name.Space || top.local != t.Name.Local {
				return nil, fmt.Errorf("%s: %w: element <%s> closed by </%s>",
					op, ErrMalformedDocument, top.qualifiedName(), qualified(t.Name))
			}
			open = open[:len(open)-1]
		case xml.CharData:
			if len(open) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, fmt.Errorf("%s: %w: text outside the root element", op, ErrMalformedDocument)
				}
				continue
			}
			for _, el := range open {
				el.text.Write(t)
			}
		}
	}

	if len(open) > 0 {
		return nil, fmt.Errorf("%s: %w: element <%s> is not closed", op, ErrMalformedDocument, open[len(open)-1].qualifiedName())
	}
	if roots == 0 {
		return nil, fmt.Errorf("%s: %w: no root element", op, ErrMalformedDocument)
	}

	return doc, nil
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}
