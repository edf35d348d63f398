package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/tckz/go-hit-counter/internal/client"
	"github.com/tckz/go-hit-counter/internal/counter"
	"github.com/tckz/go-hit-counter/internal/server"
	"github.com/tckz/go-hit-counter/internal/store"
)

func TestCommands(t *testing.T) {
	c := qt.New(t)
	srv := httptest.NewServer(server.NewHandler(counter.NewService(store.NewMemoryStore())))
	defer srv.Close()

	call := func(args ...string) client.Response {
		var out bytes.Buffer
		c.Assert(run(append([]string{"--url", srv.URL}, args...), &out), qt.IsNil)
		var res client.Response
		c.Assert(json.Unmarshal(out.Bytes(), &res), qt.IsNil, qt.Commentf("%s", out.String()))
		return res
	}

	c.Assert(call("get", "cli").Count, qt.Equals, int64(0))
	c.Assert(call("incr", "cli").Count, qt.Equals, int64(1))
	c.Assert(call("incr", "cli").Count, qt.Equals, int64(2))
	c.Assert(call("get", "cli").Count, qt.Equals, int64(2))
	c.Assert(call("incr").ID, qt.Equals, "default")
	c.Assert(call("reset", "cli").Count, qt.Equals, int64(0))

	var out bytes.Buffer
	c.Assert(run([]string{"--url", srv.URL, "badge", "cli"}, &out), qt.IsNil)
	c.Assert(out.String(), qt.Contains, "<svg")

	path := filepath.Join(t.TempDir(), "badge.svg")
	c.Assert(run([]string{"--url", srv.URL, "badge", "cli", "--out", path}, &out), qt.IsNil)
	b, err := os.ReadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(string(b), qt.Contains, ">0</text>")
}

func TestPublishRequiresTopic(t *testing.T) {
	c := qt.New(t)
	c.Setenv("PROJECT_ID", "p")

	err := run([]string{"publish", "x"}, &bytes.Buffer{})
	c.Assert(err, qt.ErrorMatches, `.*--topic.*`)
}
