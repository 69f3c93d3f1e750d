// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CheckHTTPMethod is meant to be registered with [chi.Mux.MethodNotAllowed].
// A path that exists but does not handle the requested method answers 404
// instead of chi's default 405, so callers cannot discover which methods a
// route supports.
//
//	router.MethodNotAllowed(CheckHTTPMethod(router))
func CheckHTTPMethod(router *chi.Mux) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if router.Match(chi.NewRouteContext(), r.Method, r.URL.Path) {
			router.ServeHTTP(w, r)
			return
		}

		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	}
}
