package registry

import "fmt"

/**
 * @brief Generation-checked reference into the registry. The zero value is
 * never valid: live slots always carry a generation of at least 1.
 */
type Handle struct {
	Index      uint32
	Generation uint32
}

var InvalidHandle = Handle{}

func (h Handle) IsValid() bool {
	return h.Generation != 0
}

func (h Handle) String() string {
	return fmt.Sprintf("%d:%d", h.Index, h.Generation)
}
