package rpcapi

import (
	"net/http"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/latticelayer/execution-core/internal/kvstore"
)

// NewRouter builds the public JSON-RPC surface's HTTP handler: a single
// POST route carrying JSON-RPC 2.0 request/response framing, CORS-enabled
// for browser-based dApp clients, and request-logged by chi's
// middleware.Logger.
func NewRouter(store *kvstore.Store) (http.Handler, error) {
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName("eth", NewEthAPI(store)); err != nil {
		return nil, err
	}
	if err := rpcServer.RegisterName("debug", NewDebugAPI(store)); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Post("/", rpcServer.ServeHTTP)
	return r, nil
}
