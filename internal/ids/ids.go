package ids

import "github.com/segmentio/ksuid"

// New returns a k-sortable opaque identifier, used for analytics
// events and object-storage keys. Row ids come from the database.
func New() string {
	return ksuid.New().String()
}
