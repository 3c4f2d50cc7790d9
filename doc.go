// Copyright 2025 The Golette Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package golette is the request-dispatch core of a web-serving runtime.
//
// It accepts inbound protocol scopes (HTTP requests, WebSocket connections,
// and the process lifespan), matches them against registered routes using a
// segment trie with typed path parameters, runs an onion-ordered middleware
// chain around the handler invocation, and schedules deferred background
// work after the response has been handed to the transport.
//
// The package deliberately stops short of the wire: it consumes pre-parsed
// scope descriptors and emits protocol events through caller-supplied
// receive/send functions. The transport subpackage bridges net/http and
// WebSocket connections onto that event surface.
//
// Basic usage:
//
//	app := golette.MustNew()
//	app.GET("/users/{id:int}", func(ctx context.Context, req *golette.Request) (*golette.Response, error) {
//	    id, err := req.Params.Int("id")
//	    if err != nil {
//	        return nil, golette.NewHTTPError(http.StatusBadRequest, "bad id")
//	    }
//	    return golette.JSON(http.StatusOK, map[string]int64{"id": id})
//	})
//	http.ListenAndServe(":8080", transport.New(app))
//
// Registration (routes, middleware, hooks, exception handlers) happens during
// application setup; the first dispatched scope freezes the route table and
// middleware chain, after which concurrent dispatches read them without
// locking.
package golette
