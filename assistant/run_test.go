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

package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"axonflow/assistant/shared/logger"
)

func TestBuildClient(t *testing.T) {
	store, _ := fixtureStore()
	log := logger.New("test")

	t.Run("missing credentials yields nil client", func(t *testing.T) {
		cfg := &Config{}
		assert.Nil(t, buildClient(context.Background(), cfg, store, log))
	})

	t.Run("unknown api version yields nil client", func(t *testing.T) {
		cfg := &Config{}
		cfg.Orchestration.BaseURL = "http://orchestration.test"
		cfg.Orchestration.AuthToken = "token"
		cfg.Orchestration.APIVersion = "v3"
		assert.Nil(t, buildClient(context.Background(), cfg, store, log))
	})

	t.Run("valid config yields client", func(t *testing.T) {
		cfg := &Config{}
		cfg.Orchestration.BaseURL = "http://orchestration.test"
		cfg.Orchestration.AuthToken = "token"
		assert.NotNil(t, buildClient(context.Background(), cfg, store, log))
	})
}
