package contracts

import "context"

// Store persists contracts, their children, and the frozen archive.
// Implementations return sentinel errors; batch operations are atomic.
type Store interface {
	CreateContract(ctx context.Context, contract Contract) error
	UpdateContract(ctx context.Context, contract Contract) error
	GetContract(ctx context.Context, id string) (*Contract, error)
	ListContracts(ctx context.Context) ([]Contract, error)

	AddAttachment(ctx context.Context, attachment Attachment) error
	DeleteAttachment(ctx context.Context, contractID, attachmentID string) error
	ListAttachments(ctx context.Context, contractID string) ([]Attachment, error)

	// AppendAuditEntries writes the whole batch atomically; every entry gets
	// the same store-assigned timestamp so diffs from one update share a
	// consistent snapshot time.
	AppendAuditEntries(ctx context.Context, entries []AuditEntry) error
	ListAuditEntries(ctx context.Context, contractID string) ([]AuditEntry, error)

	ArchiveContract(ctx context.Context, archived ArchivedContract) error
	GetArchivedContract(ctx context.Context, contractID string) (*ArchivedContract, error)

	// PurgeContractTree deletes all attachment rows, all audit rows and the
	// contract row as one atomic batch: either the whole live subtree
	// disappears or none of it does.
	PurgeContractTree(ctx context.Context, contractID string) error
}
