package counter

import (
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestFormat(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1K"},
		{1500, "1.5K"},
		{1250, "1.3K"},
		{1550, "1.6K"},
		{1999, "2.0K"},
		{2000, "2K"},
		{99999, "100.0K"},
		{100000, "1L"},
		{150000, "1.5L"},
		{999999, "10.0L"},
		{2500000, "25L"},
		{10000000, "1Cr"},
		{12345678, "1.2Cr"},
		{25000000, "2.5Cr"},
		{120000000, "12Cr"},
	}
	for _, tt := range tests {
		c.Run(fmt.Sprint(tt.in), func(c *qt.C) {
			c.Assert(Format(tt.in), qt.Equals, tt.want)
		})
	}
}

func TestFixed1(t *testing.T) {
	c := qt.New(t)

	c.Assert(fixed1(1.25), qt.Equals, "1.3")
	c.Assert(fixed1(1.75), qt.Equals, "1.8")
	c.Assert(fixed1(0.04), qt.Equals, "0.0")
	c.Assert(fixed1(9.96), qt.Equals, "10.0")
}
