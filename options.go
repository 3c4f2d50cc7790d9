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

package golette

import (
	"errors"
	"log/slog"
)

// Option configures an Application at construction time.
type Option func(*Application)

// WithLogger sets the logger used for dispatch errors, background task
// failures, and lifespan hook failures. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Application) { a.logger = logger }
}

// WithRecorder sets the telemetry Recorder called around every scope.
func WithRecorder(r Recorder) Option {
	return func(a *Application) { a.recorder = r }
}

// WithNotFoundHandler replaces the synthetic response built for unmatched
// HTTP paths. The handler runs without wrapping middleware; observing
// middleware still see its response.
func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *Application) { a.notFound = h }
}

func (a *Application) validate() error {
	if a.logger == nil {
		return errors.New("logger must not be nil")
	}
	if a.recorder == nil {
		return errors.New("recorder must not be nil")
	}
	return nil
}
