package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/openshelf/openshelf/pkg/httpx"
	"github.com/openshelf/openshelf/pkg/slogx"
)

// Handler serves the GraphQL endpoint. Requests are plain POSTs with the
// standard {query, variables, operationName} body.
type Handler struct {
	Schema graphql.Schema
}

func NewHandler(r *Resolver) (*Handler, error) {
	schema, err := NewSchema(r)
	if err != nil {
		return nil, err
	}
	return &Handler{Schema: schema}, nil
}

type request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		httpx.WriteError(w, http.StatusBadRequest, "query is required")
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.Schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})

	if len(result.Errors) > 0 {
		slogx.FromContext(r.Context()).Warn("graphql request failed",
			"errors", len(result.Errors),
		)
	}

	// Per GraphQL convention the transport status stays 200; errors travel in
	// the response body.
	httpx.WriteJSON(w, http.StatusOK, result)
}
