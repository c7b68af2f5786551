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

// Package knowledge holds the documentation corpus and its lexical search
// engine.
//
// The corpus maps service keys to curated documentation entries. A Store
// caches it in memory, loading lazily from a pluggable Backend (JSON file or
// Redis) and replacing the cached corpus wholesale on every mutation.
//
// The Engine scores documents against free-text queries with additive
// weighted substring matching across title, tags, description and the owning
// service's name and description, returning at most ten results ranked by
// relevance. It is exposed to the language model as the search_knowledge_base
// tool and reused directly by the deterministic fallback path.
package knowledge
