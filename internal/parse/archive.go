package parse

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/mkoziy/civic/exporter/internal/source"
)

// ArchivedMarkup reads the extracted entries of a ZIP bulk export. XML and JSON
// entries are supported; each entry is one record unless RecordElement names
// the element or key that holds records.
type ArchivedMarkup struct {
	RecordElement string
}

func (f *ArchivedMarkup) Name() string { return "archive" }

func (f *ArchivedMarkup) Parse(p *source.Payload) (*Batch, error) {
	batch := &Batch{}
	for _, file := range p.Files {
		origin := "entry " + file.Name
		records, err := f.parseEntry(file)
		if err != nil {
			batch.fail(origin, err)
			continue
		}
		for i, fields := range records {
			o := origin
			if len(records) > 1 {
				o = fmt.Sprintf("%s #%d", origin, i+1)
			}
			batch.add(o, fields)
		}
	}
	for _, name := range p.Unreadable {
		batch.fail("entry "+name, errors.New("entry could not be extracted"))
	}
	return batch, nil
}

func (f *ArchivedMarkup) parseEntry(file source.ArchiveFile) ([]map[string]string, error) {
	switch file.Ext() {
	case ".xml":
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = rc.Close()
		}()
		root, err := readXML(rc)
		if err != nil {
			return nil, err
		}
		return f.xmlRecords(root)
	case ".json":
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = rc.Close()
		}()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, err
		}
		doc, err := decodeJSON(data)
		if err != nil {
			return nil, err
		}
		return f.jsonRecords(doc)
	default:
		return nil, fmt.Errorf("unsupported entry type %q", file.Ext())
	}
}

func (f *ArchivedMarkup) jsonRecords(doc any) ([]map[string]string, error) {
	if f.RecordElement == "" {
		obj, ok := doc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %s", jsonType(doc))
		}
		fields := make(map[string]string)
		flattenJSON("", obj, fields)
		return []map[string]string{fields}, nil
	}

	var out []map[string]string
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case map[string]any:
			for k, child := range val {
				if k != f.RecordElement {
					walk(child)
					continue
				}
				switch rec := child.(type) {
				case map[string]any:
					out = append(out, flattenObject(rec))
				case []any:
					for _, item := range rec {
						if obj, ok := item.(map[string]any); ok {
							out = append(out, flattenObject(obj))
						}
					}
				}
			}
		case []any:
			for _, child := range val {
				walk(child)
			}
		}
	}
	walk(doc)
	if len(out) == 0 {
		return nil, fmt.Errorf("no %q records in entry", f.RecordElement)
	}
	return out, nil
}

func flattenObject(obj map[string]any) map[string]string {
	fields := make(map[string]string)
	flattenJSON("", obj, fields)
	return fields
}

// xmlNode is an element of a decoded entry.
type xmlNode struct {
	name     string
	attrs    []xml.Attr
	text     strings.Builder
	children []*xmlNode
}

func readXML(r io.Reader) (*xmlNode, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	dec.Entity = xml.HTMLEntity

	doc := &xmlNode{}
	stack := []*xmlNode{doc}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}
		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: t.Name.Local, attrs: t.Attr}
			top.children = append(top.children, n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			top.text.Write(t)
		}
	}
	if len(doc.children) == 0 {
		return nil, errors.New("decode xml: no root element")
	}
	return doc, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

func (f *ArchivedMarkup) xmlRecords(doc *xmlNode) ([]map[string]string, error) {
	if f.RecordElement == "" {
		fields := make(map[string]string)
		flattenXML("", doc, fields)
		return []map[string]string{fields}, nil
	}

	var out []map[string]string
	var walk func(n *xmlNode)
	walk = func(n *xmlNode) {
		for _, c := range n.children {
			if c.name == f.RecordElement {
				fields := make(map[string]string)
				flattenXML("", c, fields)
				out = append(out, fields)
				continue
			}
			walk(c)
		}
	}
	walk(doc)
	if len(out) == 0 {
		return nil, fmt.Errorf("no <%s> records in entry", f.RecordElement)
	}
	return out, nil
}

// flattenXML writes n's attributes, text and children under prefix.
// Repeated child names get an index suffix after the first.
func flattenXML(prefix string, n *xmlNode, out map[string]string) {
	for _, a := range n.attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		out[prefix+"@"+a.Name.Local] = a.Value
	}
	if prefix != "" && len(n.children) == 0 {
		if text := strings.TrimSpace(n.text.String()); text != "" {
			out[prefix] = text
		}
	}

	seen := make(map[string]int)
	for _, c := range n.children {
		k := seen[c.name]
		seen[c.name] = k + 1
		flattenXML(indexedKey(joinKey(prefix, c.name), k), c, out)
	}
}
