package server

import (
	"mime"
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/tckz/go-hit-counter/internal/counter"
)

type Op int

const (
	OpUnknown Op = iota
	OpPreflight
	OpRead
	OpIncrement
	OpReset
	OpRenderImage
)

func (o Op) String() string {
	switch o {
	case OpPreflight:
		return "preflight"
	case OpRead:
		return counter.OpRead
	case OpIncrement:
		return counter.OpIncrement
	case OpReset:
		return counter.OpReset
	case OpRenderImage:
		return counter.OpRenderImage
	default:
		return "unknown"
	}
}

type Encoding int

const (
	EncodingJSON Encoding = iota
	EncodingImage
)

const (
	mediaJSON = "application/json"
	mediaSVG  = "image/svg+xml"
)

// Request is the classification of an incoming counter request, resolved once
// before dispatch.
type Request struct {
	Op       Op
	Encoding Encoding
	ID       string
}

func Classify(r *http.Request) Request {
	q := r.URL.Query()
	req := Request{
		ID:       q.Get("id"),
		Encoding: negotiate(q.Get("format"), r.Header.Get("Accept")),
	}
	if req.ID == "" {
		req.ID = counter.DefaultID
	}

	switch r.Method {
	case http.MethodOptions:
		req.Op = OpPreflight
	case http.MethodGet:
		req.Op = OpRead
		if req.Encoding == EncodingImage {
			req.Op = OpRenderImage
		}
	case http.MethodPost:
		req.Op = OpIncrement
	case http.MethodDelete:
		req.Op = OpReset
	default:
		req.Op = OpUnknown
	}
	return req
}

// negotiate prefers the format query parameter. Without it an Accept header
// asking for SVG, and not for JSON, selects the image.
func negotiate(format, accept string) Encoding {
	switch format {
	case "image":
		return EncodingImage
	case "json":
		return EncodingJSON
	}

	types := lo.FilterMap(strings.Split(accept, ","), func(e string, _ int) (string, bool) {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(e))
		return mt, err == nil
	})
	if lo.Contains(types, mediaJSON) {
		return EncodingJSON
	}
	if lo.Contains(types, mediaSVG) || lo.Contains(types, "image/*") {
		return EncodingImage
	}
	return EncodingJSON
}
