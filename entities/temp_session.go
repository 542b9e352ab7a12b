package entities

// TempSession groups receipts uploaded anonymously, keyed by a
// client-generated token. Its receipts reference it through
// Receipt.OwnerType/OwnerID rather than a foreign key, since ownership
// moves to a user on migration.
type TempSession struct {
	ID string `gorm:"primary_key" json:"id"`

	Timestamp
}
