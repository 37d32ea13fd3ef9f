package domain

// OnEntryPosted must be called right before a posted status is saved. It adds
// the entry to its customer's open balance unless it is already fully
// allocated. Calling it again on an open entry has no effect.
func OnEntryPosted(e *LedgerEntry) error {
	if e.CustomerID == "" {
		return ErrMissingCustomer
	}

	if e.IsPosted() && e.IsOpen() {
		e.InOpenBalance = true
	}

	return nil
}
