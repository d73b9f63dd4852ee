// Copyright 2025 Poiesic Systems
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


package retrieval

import (
	"context"
	"log/slog"
	"time"
)

// retryOnce runs operation and, on failure, retries exactly once after the
// given backoff. Context cancellation aborts both the wait and the retry;
// the context error wins over the operation error so deadline expiry is
// reported as such.
func retryOnce(ctx context.Context, operation func() error, backoff time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := operation()
	if err == nil {
		return nil
	}

	slog.Debug("operation failed, retrying once", "backoff", backoff, "error", err)

	timer := time.NewTimer(backoff)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
	}

	if retryErr := operation(); retryErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return retryErr
	}

	slog.Debug("operation succeeded after retry")
	return nil
}
