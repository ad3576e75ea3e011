package generation

import (
	"context"

	"github.com/xkilldash9x/easel-cli/api/schemas"
)

// trigger invokes the page-exposed driver function with the prompt and model.
// The call resolves quickly; it only starts the library-internal async chain,
// so the only thing asserted here is that the invocation did not throw
// synchronously. Completion is observed later by the poller.
func trigger(ctx context.Context, session schemas.PageSession, prompt, model string) error {
	if _, err := session.Evaluate(ctx, triggerExpression(prompt, model)); err != nil {
		return wrapf(TriggerFailure, err, "driver invocation threw: %v", err)
	}
	return nil
}
