package httpadapter

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// requestValidator checks request bodies of documented operations against
// the embedded OpenAPI document.
type requestValidator struct {
	doc *openapi3.T
}

func newRequestValidator() (*requestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return &requestValidator{doc: doc}, nil
}

func (v *requestValidator) route(r *http.Request) *routers.Route {
	item := v.doc.Paths.Value(r.URL.Path)
	if item == nil {
		return nil
	}
	op := item.GetOperation(r.Method)
	if op == nil {
		return nil
	}
	return &routers.Route{
		Spec:      v.doc,
		Path:      r.URL.Path,
		PathItem:  item,
		Method:    r.Method,
		Operation: op,
	}
}

func (v *requestValidator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := v.route(r)
		if route == nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request: r,
			Route:   route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				MultiError:         false,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func validationMessage(err error) string {
	switch e := err.(type) {
	case *openapi3filter.RequestError:
		if e.Err != nil {
			return "invalid request: " + e.Err.Error()
		}
		return "invalid request: " + e.Reason
	default:
		return "invalid request"
	}
}
