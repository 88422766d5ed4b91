//nolint:revive
package util

import "fmt"

// ValidateStrictlyIncreasing returns an error unless every number is larger
// than the one before it. Header batches are submitted in chain order, and
// anything else would be rejected by the ledger after gas was spent.
func ValidateStrictlyIncreasing(numbers []uint64) error {
	for i := 1; i < len(numbers); i++ {
		if numbers[i] <= numbers[i-1] {
			return fmt.Errorf("number %d at index %d does not follow %d", numbers[i], i, numbers[i-1])
		}
	}

	return nil
}
