// Package diffpatch renders a human-readable RFC 7396 JSON merge patch
// describing what changed between an observed application and the desired
// one, for operator-facing log lines only — it has no bearing on the diff
// engine's create/update/restart/scale decision, which lives in
// internal/diff and never imports this package.
package diffpatch

import (
	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/orchestrator-tools/deploy/internal/jsonval"
)

// Describe returns the JSON merge patch that would turn observed into
// desired, for logging. Errors are non-fatal to the caller: the deployer
// logs them and proceeds without a diff description rather than aborting a
// deploy over a diagnostic.
func Describe(observed, desired *jsonval.Object) ([]byte, error) {
	originalJSON, err := jsonval.MarshalOrdered(jsonval.FromObject(observed))
	if err != nil {
		return nil, err
	}
	modifiedJSON, err := jsonval.MarshalOrdered(jsonval.FromObject(desired))
	if err != nil {
		return nil, err
	}
	return jsonpatch.CreateMergePatch(originalJSON, modifiedJSON)
}
