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

// Package main is the entry point for the SAP AI documentation
// assistant service.
//
// Usage:
//
//	./assistant
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	KB_PATH - knowledge base JSON file (default: data/knowledge_base.json)
//	REDIS_ADDR - Redis address for the shared corpus backend (optional)
//	DATABASE_URL - PostgreSQL connection string for audit logging (optional)
//	ORCHESTRATION_URL - base URL of the LLM-orchestration deployment
//	ORCHESTRATION_TOKEN - bearer token for the orchestration service
//	ORCHESTRATION_API_VERSION - "v1" or "v2" (default: v2)
//	ADMIN_JWT_SECRET - enables JWT auth on knowledge-base mutations
//
// Without ORCHESTRATION_URL and ORCHESTRATION_TOKEN the service runs in
// mock mode and answers from keyword heuristics plus local search.
package main

import (
	"axonflow/assistant/assistant"
)

func main() {
	assistant.Run()
}
