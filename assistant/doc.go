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

// Package assistant implements the SAP AI documentation assistant
// service: question answering over a curated documentation corpus via
// a remote LLM-orchestration service, with tool-calling retrieval,
// client-side PII masking, pipeline diagnostics and a deterministic
// mock fallback when no orchestration credentials are configured.
package assistant
