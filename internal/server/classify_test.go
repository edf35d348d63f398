package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestClassify(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name   string
		method string
		target string
		accept string
		want   Request
	}{
		{"read default id", http.MethodGet, "/", "", Request{Op: OpRead, Encoding: EncodingJSON, ID: "default"}},
		{"read json", http.MethodGet, "/?id=blog&format=json", "", Request{Op: OpRead, Encoding: EncodingJSON, ID: "blog"}},
		{"image by format", http.MethodGet, "/?id=blog&format=image", "", Request{Op: OpRenderImage, Encoding: EncodingImage, ID: "blog"}},
		{"image by accept", http.MethodGet, "/?id=blog", "image/svg+xml", Request{Op: OpRenderImage, Encoding: EncodingImage, ID: "blog"}},
		{"image wildcard accept", http.MethodGet, "/?id=blog", "image/webp, image/*;q=0.8", Request{Op: OpRenderImage, Encoding: EncodingImage, ID: "blog"}},
		{"json wins in accept", http.MethodGet, "/?id=blog", "image/svg+xml, application/json", Request{Op: OpRead, Encoding: EncodingJSON, ID: "blog"}},
		{"format beats accept", http.MethodGet, "/?id=blog&format=json", "image/svg+xml", Request{Op: OpRead, Encoding: EncodingJSON, ID: "blog"}},
		{"browser accept", http.MethodGet, "/?id=blog", "text/html,application/xhtml+xml,*/*;q=0.8", Request{Op: OpRead, Encoding: EncodingJSON, ID: "blog"}},
		{"increment", http.MethodPost, "/?id=blog", "", Request{Op: OpIncrement, Encoding: EncodingJSON, ID: "blog"}},
		{"increment image", http.MethodPost, "/?format=image", "", Request{Op: OpIncrement, Encoding: EncodingImage, ID: "default"}},
		{"reset", http.MethodDelete, "/?id=blog", "", Request{Op: OpReset, Encoding: EncodingJSON, ID: "blog"}},
		{"preflight", http.MethodOptions, "/anything?x=1", "", Request{Op: OpPreflight, Encoding: EncodingJSON, ID: "default"}},
		{"put", http.MethodPut, "/?id=blog", "", Request{Op: OpUnknown, Encoding: EncodingJSON, ID: "blog"}},
		{"unknown format", http.MethodGet, "/?format=xml", "", Request{Op: OpRead, Encoding: EncodingJSON, ID: "default"}},
	}
	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			c.Assert(Classify(r), qt.Equals, tt.want)
		})
	}
}

func TestOpString(t *testing.T) {
	c := qt.New(t)

	c.Assert(OpRenderImage.String(), qt.Equals, "render_image")
	c.Assert(OpPreflight.String(), qt.Equals, "preflight")
	c.Assert(Op(99).String(), qt.Equals, "unknown")
}
