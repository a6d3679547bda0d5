/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package tracing

import (
	"context"
	"testing"
)

func TestInitWithEmptyEndpointReturnsUsableNoopTracer(t *testing.T) {
	tracer, shutdown, err := Init(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if tracer == nil {
		t.Fatal("Init() tracer = nil, want a usable no-op tracer")
	}

	_, span := tracer.Start(context.Background(), "test-span")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v, want nil for the no-op path", err)
	}
}

func TestInitWithEndpointBuildsExportingTracer(t *testing.T) {
	tracer, shutdown, err := Init(context.Background(), Config{
		Endpoint:    "127.0.0.1:4317",
		Insecure:    true,
		ServiceName: "consolidator-test",
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if tracer == nil {
		t.Fatal("Init() tracer = nil, want a usable tracer")
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			t.Errorf("shutdown() error = %v", err)
		}
	}()

	_, span := tracer.Start(context.Background(), "test-span")
	span.End()
}
