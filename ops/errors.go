package ops

import "fmt"

// AppNotFoundError is returned by Replace when the walker reaches the end
// of the chain without finding an installed app whose name matches the
// replacement image.
type AppNotFoundError struct {
	Name string
}

func (e *AppNotFoundError) Error() string {
	return fmt.Sprintf("ops: no installed app named %q found", e.Name)
}
