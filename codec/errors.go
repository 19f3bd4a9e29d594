// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package codec

import (
	"errors"
	"fmt"
)

// ErrBadFormat is the single error kind of the node decoders: the
// byte sequence cannot be parsed as a valid node under the active
// layout's grammar. Wrap sites add context text only; callers that
// need finer diagnostics must add their own categorization.
var ErrBadFormat = errors.New("bad format")

func errTruncated(want, have int) error {
	return fmt.Errorf("%w: need %d bytes, have %d", ErrBadFormat, want, have)
}
