package counter

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"testing"

	qt "github.com/frankban/quicktest"
)

type svgDoc struct {
	XMLName xml.Name `xml:"svg"`
	Width   string   `xml:"width,attr"`
	Height  string   `xml:"height,attr"`
	Title   string   `xml:"title"`
	Texts   []string `xml:"text"`
}

func parseBadge(c *qt.C, b []byte) svgDoc {
	var doc svgDoc
	c.Assert(xml.Unmarshal(b, &doc), qt.IsNil, qt.Commentf("%s", b))
	return doc
}

func TestRenderBadge(t *testing.T) {
	c := qt.New(t)

	for _, n := range []int64{0, 42, 1000, 1500, 123456, 25000000} {
		c.Run(fmt.Sprint(n), func(c *qt.C) {
			b, err := RenderBadge(n)
			c.Assert(err, qt.IsNil)

			doc := parseBadge(c, b)
			c.Assert(doc.XMLName.Space, qt.Equals, "http://www.w3.org/2000/svg")
			c.Assert(doc.Height, qt.Equals, "20")
			c.Assert(doc.Texts, qt.DeepEquals, []string{"Views:", Format(n)})
			c.Assert(doc.Width, qt.Equals, strconv.Itoa(BadgeWidth(Format(n))))
		})
	}
}

func TestRenderBadgeTitle(t *testing.T) {
	c := qt.New(t)

	b, err := RenderBadge(1234567)
	c.Assert(err, qt.IsNil)
	c.Assert(parseBadge(c, b).Title, qt.Equals, "Views: 1,234,567")
}

func TestBadgeWidth(t *testing.T) {
	c := qt.New(t)

	c.Assert(BadgeWidth("0"), qt.Equals, 120)
	c.Assert(BadgeWidth("1.5Cr"), qt.Equals, 120)
	c.Assert(BadgeWidth("123456789012345"), qt.Equals, 15*6+40)
}
