// Copyright 2025 AxonFlow
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

// Package orchestration is the client for the remote LLM-orchestration
// service.
//
// The service runs a configurable pipeline per call: prompt templating,
// PII masking, input content filtering, the model completion (with tool
// calling and strict JSON output schemas) and output content filtering.
// Two incompatible API versions are in production; v1 returns a flat
// response with module results beside the completion, v2 nests them under
// intermediate_results and final_result, with matching differences in
// error bodies. A resultDecoder bound at client construction normalizes
// both into one canonical Result, so callers never branch on the version.
//
// Content-safety blocks surface as *ModerationError carrying whatever
// partial module telemetry the rejection included; other upstream failures
// surface as *APIError.
package orchestration
