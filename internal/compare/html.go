package compare

import (
	"bytes"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// htmlFacts accumulates the HTML-derived attributes during one tree walk.
type htmlFacts struct {
	title         string
	tagNames      []string
	tagIDs        []string
	divIDs        []string
	classes       []string
	comments      []string
	headers       []string
	anchors       []string
	buttonSubmits []string
	inputSubmits  []string
	inputImages   []string
	inputTypes    []string
	canonical     string
	edgeTags      []string
	visibleText   []string
}

// outboundEdges maps tags to the attribute holding their outbound URL.
var outboundEdges = map[atom.Atom]string{
	atom.A:      "href",
	atom.Link:   "href",
	atom.Script: "src",
	atom.Img:    "src",
	atom.Iframe: "src",
	atom.Form:   "action",
}

func addHTMLAttributes(fp Fingerprint, body []byte) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return
	}

	var f htmlFacts
	f.walk(doc, false)

	slices.Sort(f.tagIDs)
	slices.Sort(f.divIDs)
	slices.Sort(f.classes)
	f.classes = slices.Compact(f.classes)

	fp[AttrPageTitle] = f.title
	fp[AttrTagNames] = strings.Join(f.tagNames, " ")
	fp[AttrTagIDs] = strings.Join(f.tagIDs, " ")
	fp[AttrDivIDs] = strings.Join(f.divIDs, " ")
	fp[AttrCSSClasses] = strings.Join(f.classes, " ")
	fp[AttrComments] = strings.Join(f.comments, "\n")
	if len(f.headers) > 0 {
		fp[AttrFirstHeaderTag] = f.headers[0]
	}
	fp[AttrHeaderTags] = strings.Join(f.headers, "\n")
	fp[AttrAnchorLabels] = strings.Join(f.anchors, "\n")
	fp[AttrButtonSubmitLabels] = strings.Join(f.buttonSubmits, "\n")
	fp[AttrInputSubmitLabels] = strings.Join(f.inputSubmits, "\n")
	fp[AttrInputImageLabels] = strings.Join(f.inputImages, "\n")
	fp[AttrNonHiddenFormInputTypes] = strings.Join(f.inputTypes, " ")
	fp[AttrCanonicalLink] = f.canonical
	fp[AttrOutboundEdgeCount] = strconv.Itoa(len(f.edgeTags))
	fp[AttrOutboundEdgeTagNames] = strings.Join(f.edgeTags, " ")

	text := strings.Join(f.visibleText, " ")
	fp[AttrVisibleText] = text
	fp[AttrVisibleWordCount] = strconv.Itoa(len(strings.Fields(text)))
}

func (f *htmlFacts) walk(n *html.Node, hidden bool) {
	switch n.Type {
	case html.CommentNode:
		f.comments = append(f.comments, strings.TrimSpace(n.Data))
	case html.TextNode:
		if !hidden {
			if text := collapse(n.Data); text != "" {
				f.visibleText = append(f.visibleText, text)
			}
		}
	case html.ElementNode:
		f.element(n)
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head, atom.Noscript, atom.Template:
			hidden = true
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		f.walk(c, hidden)
	}
}

func (f *htmlFacts) element(n *html.Node) {
	f.tagNames = append(f.tagNames, n.Data)

	if id := attr(n, "id"); id != "" {
		f.tagIDs = append(f.tagIDs, id)
		if n.DataAtom == atom.Div {
			f.divIDs = append(f.divIDs, id)
		}
	}
	f.classes = append(f.classes, strings.Fields(attr(n, "class"))...)

	if key, ok := outboundEdges[n.DataAtom]; ok && attr(n, key) != "" {
		f.edgeTags = append(f.edgeTags, n.Data)
	}

	switch n.DataAtom {
	case atom.Title:
		if f.title == "" {
			f.title = collapse(textContent(n))
		}
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		f.headers = append(f.headers, collapse(textContent(n)))
	case atom.A:
		f.anchors = append(f.anchors, collapse(textContent(n)))
	case atom.Button:
		if t := strings.ToLower(attr(n, "type")); t == "" || t == "submit" {
			f.buttonSubmits = append(f.buttonSubmits, collapse(textContent(n)))
		}
	case atom.Input:
		t := strings.ToLower(attr(n, "type"))
		switch t {
		case "submit":
			f.inputSubmits = append(f.inputSubmits, attr(n, "value"))
		case "image":
			f.inputImages = append(f.inputImages, attr(n, "alt"))
		}
		if t != "hidden" {
			if t == "" {
				t = "text"
			}
			f.inputTypes = append(f.inputTypes, t)
		}
	case atom.Link:
		if f.canonical == "" && strings.EqualFold(attr(n, "rel"), "canonical") {
			f.canonical = attr(n, "href")
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
