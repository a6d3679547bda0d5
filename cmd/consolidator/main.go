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

// Command consolidator runs the control loop as a standalone process,
// wired against a live KubeVirt cluster via pkg/adapters/kubevirt. Flag
// handling follows the spf13/cobra + spf13/pflag idiom the teacher
// depends on for its own CLI surface.
package main

import (
	"os"

	"k8s.io/klog/v2"

	"github.com/openinfra/consolidator/cmd/consolidator/app"
)

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()

	if err := app.NewRootCommand().Execute(); err != nil {
		klog.Background().Error(err, "consolidator exited with error")
		os.Exit(1)
	}
}
