package server

import (
	_ "embed"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

//go:embed index.html
var indexHTML []byte

func pageHandler(logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=UTF-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(indexHTML); err != nil {
			logger.Debugf("Write: %v", err)
		}
	}
}

// hasNoQuery matches requests for the bare page, leaving "/?id=..." to the
// counter endpoint.
func hasNoQuery(r *http.Request, _ *mux.RouteMatch) bool {
	return r.URL.RawQuery == ""
}
