// Package ids allocates appointment and customer identifiers.
package ids

// Next returns the smallest positive integer not present in existing.
// existing is a snapshot of every ID in one universe (appointments or
// customers); callers re-read it before each allocation.
func Next(existing []int) int {
	candidate := 1
	for {
		taken := false
		for _, id := range existing {
			if id == candidate {
				taken = true
				break
			}
		}
		if !taken {
			return candidate
		}
		candidate++
	}
}
