package auth

import (
	"fmt"

	"github.com/solatis/policykeeper/internal/types"
)

// ErrInvalidUserID is returned for identities that are too long or contain
// whitespace or control characters. It matches types.ErrInvalidInput.
var ErrInvalidUserID = fmt.Errorf("%w: malformed %s", types.ErrInvalidInput, UserIDHeader)
