package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// corsPolicy is the cross-origin policy for browser control surfaces.
type corsPolicy struct {
	origin  string
	methods string
	headers string
	expose  string
	maxAge  string
}

func newCORSPolicy(origin string, maxAge int) corsPolicy {
	return corsPolicy{
		origin:  origin,
		methods: strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}, ", "),
		headers: "Content-Type, Authorization, Accept, Origin, Last-Event-ID",
		expose:  "Content-Type, Content-Length",
		maxAge:  strconv.Itoa(maxAge),
	}
}

func (p corsPolicy) apply(set func(key, value string)) {
	set("Access-Control-Allow-Origin", p.origin)
	set("Access-Control-Allow-Methods", p.methods)
	set("Access-Control-Allow-Headers", p.headers)
	set("Access-Control-Expose-Headers", p.expose)
	set("Access-Control-Max-Age", p.maxAge)
}

// middleware adds the policy headers to every huma operation.
func (p corsPolicy) middleware(ctx huma.Context, next func(huma.Context)) {
	p.apply(ctx.SetHeader)
	if ctx.Method() == http.MethodOptions {
		ctx.SetStatus(http.StatusNoContent)
		return
	}
	next(ctx)
}

// preflight answers OPTIONS on the mux, since huma routes never see
// methods they do not register.
func (p corsPolicy) preflight(mux *http.ServeMux) {
	mux.HandleFunc("OPTIONS /", func(w http.ResponseWriter, _ *http.Request) {
		p.apply(w.Header().Set)
		w.WriteHeader(http.StatusNoContent)
	})
}
