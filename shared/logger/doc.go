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

// Package logger provides structured JSON logging for all services.
//
// Every log entry is a single JSON object written to stdout, carrying the
// timestamp, level, component, container hostname, request ID, message and
// arbitrary structured fields. Log aggregators can index entries without
// any parsing configuration.
//
// # Usage
//
//	log := logger.New("assistant")
//	log.Info(requestID, "question received", map[string]interface{}{
//		"question_length": len(question),
//	})
//
// The request ID ties together all entries produced while serving a single
// HTTP request. Pass an empty string for entries outside a request scope.
package logger
