package markers

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/usestring/reqmin/pkg/contenttype"
)

// queryCSS extracts the trimmed text of every element matching a CSS selector.
func queryCSS(body []byte, expression string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	values := []string{}
	doc.Find(expression).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			values = append(values, text)
		}
	})
	return values, nil
}

// queryXPath extracts text from XML or HTML. HTML content types are parsed
// with htmlquery, everything else with xmlquery.
func queryXPath(body []byte, ct string, expr *xpath.Expr) ([]string, error) {
	values := []string{}

	if contenttype.Classify(ct) == contenttype.HTML {
		doc, err := htmlquery.Parse(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML: %w", err)
		}
		for _, n := range htmlquery.QuerySelectorAll(doc, expr) {
			if text := strings.TrimSpace(htmlquery.InnerText(n)); text != "" {
				values = append(values, text)
			}
		}
		return values, nil
	}

	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	for _, n := range xmlquery.QuerySelectorAll(doc, expr) {
		if text := strings.TrimSpace(n.InnerText()); text != "" {
			values = append(values, text)
		}
	}
	return values, nil
}

// queryRegex returns the first capture group per match, or the full match
// when the regex has no groups.
func queryRegex(body []byte, re *regexp.Regexp) []string {
	hasGroups := re.NumSubexp() > 0

	values := []string{}
	for _, match := range re.FindAllSubmatch(body, -1) {
		if hasGroups && len(match) > 1 {
			values = append(values, string(match[1]))
		} else {
			values = append(values, string(match[0]))
		}
	}
	return values
}

// queryForm returns the values of a form key. "*" returns every key=value pair.
func queryForm(body []byte, expression string) ([]string, error) {
	parsed, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse form data: %w", err)
	}

	values := []string{}
	if expression == "*" || expression == "." {
		for key, vals := range parsed {
			for _, v := range vals {
				values = append(values, key+"="+v)
			}
		}
		return values, nil
	}
	return append(values, parsed[expression]...), nil
}
