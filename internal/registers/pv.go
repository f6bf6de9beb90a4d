package registers

import "fmt"

// PVRegisterNames returns the PV_{i:02}_VOLTAGE / PV_{i:02}_CURRENT field
// names for the given string count, in address order. count must be in
// [1, 24]; callers are expected to have validated that already (the Bridge
// does, at probe time).
func PVRegisterNames(count int) []string {
	names := make([]string, 0, count*2)
	for i := 1; i <= count; i++ {
		names = append(names, fmt.Sprintf("PV_%02d_VOLTAGE", i), fmt.Sprintf("PV_%02d_CURRENT", i))
	}
	return names
}
