package nats

import (
	"fmt"
)

// GetTableChangedSubject is the subject every commit of a table is announced on.
func GetTableChangedSubject(tableID string) string {
	return fmt.Sprintf("ofc.table.%s.changed", tableID)
}
