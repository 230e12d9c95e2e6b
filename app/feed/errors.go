package feed

import (
	"fmt"
)

// MissingNamespaceError reports a field path that uses a prefix absent from
// the extractor's namespace table.
type MissingNamespaceError struct {
	Prefix string
	Path   string
}

func (e *MissingNamespaceError) Error() string {
	return fmt.Sprintf("namespace prefix %q in path %q is not defined", e.Prefix, e.Path)
}
