package builder

import "errors"

// ErrBuildFailed wraps any failure encountered while turning a
// descriptor into a BuiltRequest: malformed input, unknown template,
// unknown transformer, unsupported signing algorithm, or a failed
// validator. The descriptor is rejected before enqueue.
var ErrBuildFailed = errors.New("request build failed")
