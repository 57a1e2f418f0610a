// Package inspect exposes a container's registrations, catalog and
// dependency cache over read-only JSON endpoints.
//
//	GET /bindings              all registrations (?kind=class|instance|factory)
//	GET /bindings/{name...}    one registration
//	GET /classes               catalog identifiers
//	GET /dependencies          the dependency cache
//	GET /dependencies/{class}  one class, inspected on demand
package inspect

import (
	"net/http"
	"strings"

	"github.com/km-arc/go-autowire/framework/container"
	gohttp "github.com/km-arc/go-autowire/framework/http"
	"github.com/km-arc/go-autowire/framework/routing"
	"github.com/km-arc/go-autowire/framework/validation"
)

// Handler returns the inspection routes for c, ready to be mounted.
func Handler(c *container.Container) http.Handler {
	h := &handler{c: c}
	r := routing.New()
	r.Get("/bindings", h.bindings)
	r.Get("/bindings/*", h.binding)
	r.Get("/classes", h.classes)
	r.Get("/dependencies", h.dependencies)
	r.Get("/dependencies/*", h.dependency)
	return r
}

type handler struct {
	c *container.Container
}

var listRules = validation.Rules{
	"kind": "nullable|in:class,instance,factory",
}

func (h *handler) bindings(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w, r)
	kind := strings.TrimSpace(r.URL.Query().Get("kind"))

	if v := validation.Make(map[string]string{"kind": kind}, listRules); v.Fails() {
		res.ValidationError(v.Errors())
		return
	}

	all := h.c.Bindings()
	if kind == "" {
		res.Success(all)
		return
	}
	out := make([]container.Binding, 0, len(all))
	for _, b := range all {
		if strings.EqualFold(b.Kind, kind) {
			out = append(out, b)
		}
	}
	res.Success(out)
}

func (h *handler) binding(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w, r)
	name := routing.Param(r, "*")

	b, ok := h.c.Binding(name)
	if !ok {
		res.NotFound("No binding registered as [" + name + "].")
		return
	}
	res.Success(b)
}

func (h *handler) classes(w http.ResponseWriter, r *http.Request) {
	gohttp.NewResponse(w, r).Success(h.c.Catalog().Classes())
}

func (h *handler) dependencies(w http.ResponseWriter, r *http.Request) {
	gohttp.NewResponse(w, r).Success(h.c.Dependencies())
}

func (h *handler) dependency(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w, r)
	e, err := h.c.Explain(routing.Param(r, "*"))
	if err != nil {
		res.Problem(err)
		return
	}
	res.Success(e)
}
