package domain

// PendingMessage is one unsynced row from the message store. The row itself
// is owned by the store; this system only ever flips its synced flag, so the
// flag is not represented here.
type PendingMessage struct {
	ID   string // opaque stable identifier, also the base of idempotency keys
	Text string // raw natural-language message
}

// Account is a ledger account reference entry, fetched fresh every cycle.
type Account struct {
	ID   string
	Name string
}

// Category is a ledger category reference entry, fetched fresh every cycle.
type Category struct {
	ID   string
	Name string
}
