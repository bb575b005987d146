package router

import (
	"net/http"

	"github.com/jade-bank/core-ledger/src/internal/adapter/http/controller"
)

type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux, authMiddleware func(http.Handler) http.Handler)
}

type Controllers struct {
	Owner       RouteRegistrar
	KYC         RouteRegistrar
	Account     RouteRegistrar
	Transaction RouteRegistrar
	Loan        RouteRegistrar
}

func New(controllers Controllers, authMiddleware func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	registerSwaggerRoutes(mux)
	mux.HandleFunc("GET /health", controller.Health)

	for _, registrar := range []RouteRegistrar{
		controllers.Owner,
		controllers.KYC,
		controllers.Account,
		controllers.Transaction,
		controllers.Loan,
	} {
		if registrar != nil {
			registrar.RegisterRoutes(mux, authMiddleware)
		}
	}

	return mux
}
