package submesh

import (
	"errors"
	"fmt"
)

// Sentinel errors carried by the panics of submesh construction.
// Recover the panic value and use errors.Is() to tell them apart.
var (
	// ErrInvariant indicates a lookup or count the construction relies on did
	// not hold: a bug, or a parent mesh that was not prepared with Update.
	ErrInvariant = errors.New("submesh invariant violated")

	// ErrUnsupported indicates a parent configuration the extraction rejects,
	// such as a boundary attribute on an interior conforming face.
	ErrUnsupported = errors.New("unsupported submesh configuration")

	// ErrRankDisagreement indicates ranks built different submesh forests.
	ErrRankDisagreement = errors.New("ranks disagree on submesh")
)

// Debug turns on the collective root count check and the audits of the
// identity maps after construction
var Debug = false

func fail(sentinel error, format string, args ...interface{}) {
	panic(fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)))
}

func check(ok bool, format string, args ...interface{}) {
	if !ok {
		fail(ErrInvariant, format, args...)
	}
}
