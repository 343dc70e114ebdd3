// Package markup wraps goquery with the few text helpers the menu and
// nutrition parsers share.
package markup

import (
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Load parses r into a document. Unparseable input yields an empty document
// so callers can treat it as a page without matches.
func Load(r io.Reader) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}
	return doc
}

// Clean collapses all whitespace, including non-breaking spaces, to single spaces.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Text returns the cleaned text of a selection.
func Text(s *goquery.Selection) string {
	return Clean(s.Text())
}

// TrailingText returns the text nodes directly after the first node of s, up
// to the next element. It reads the value of "<b>Label</b> value" markup.
func TrailingText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for n := s.Get(0).NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			if n.Data == "br" {
				break
			}
			// inline wrappers such as <span>376</span> still carry the value
			if n.Data != "span" && n.Data != "i" && n.Data != "em" {
				break
			}
			b.WriteString(goquery.NewDocumentFromNode(n).Text())
			continue
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	}
	return Clean(b.String())
}

var numberRe = regexp.MustCompile(`(-?)(\d[\d,]*(?:\.\d+)?|\.\d+)\s*(mcg|µg|mg|kcal|cal|g|%)?`)

// Number extracts the first number in s along with its unit suffix, if any.
// Thousands separators are accepted. Negative or non-finite values report
// ok=false.
func Number(s string) (v float64, unit string, ok bool) {
	m := numberRe.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, "", false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, "", false
	}
	if m[1] == "-" {
		return 0, "", false
	}
	unit = m[3]
	if unit == "µg" {
		unit = "mcg"
	}
	return v, unit, true
}
