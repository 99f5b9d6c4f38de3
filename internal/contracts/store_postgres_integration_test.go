//go:build integration

package contracts_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/fbn1986/gerenciador-de-contratos/internal/contracts"
	"github.com/fbn1986/gerenciador-de-contratos/pkg/platform/sentinel"
	"github.com/fbn1986/gerenciador-de-contratos/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *contracts.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = contracts.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "attachments", "audit_entries", "archived_contracts", "contracts")
	s.Require().NoError(err)
}

func newTestContract(title string) contracts.Contract {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return contracts.Contract{
		ID:              uuid.NewString(),
		Title:           title,
		Status:          contracts.StatusProposal,
		ContractedParty: "Fornecedora Ltda",
		TotalValue:      125000.50,
		Sector:          "TI",
		CostCenter:      "CC-100",
		CreatedBy:       "uid-1",
		UpdatedBy:       "uid-1",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (s *PostgresStoreSuite) TestContractRoundTrip() {
	ctx := context.Background()
	c := newTestContract("Lease A")

	s.Require().NoError(s.store.CreateContract(ctx, c))

	got, err := s.store.GetContract(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.Title, got.Title)
	s.Equal(c.Status, got.Status)
	s.Equal(c.TotalValue, got.TotalValue)
	s.True(c.CreatedAt.Equal(got.CreatedAt))
}

func (s *PostgresStoreSuite) TestDuplicateContractConflicts() {
	ctx := context.Background()
	c := newTestContract("Lease A")

	s.Require().NoError(s.store.CreateContract(ctx, c))
	s.ErrorIs(s.store.CreateContract(ctx, c), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdateMissingContract() {
	err := s.store.UpdateContract(context.Background(), newTestContract("Ghost"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestAttachmentRequiresContract() {
	err := s.store.AddAttachment(context.Background(), contracts.Attachment{
		ID:         uuid.NewString(),
		ContractID: uuid.NewString(),
		Name:       "orfao.pdf",
		UploadedAt: time.Now(),
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestAuditBatchSharesOneTimestamp() {
	ctx := context.Background()
	c := newTestContract("Lease A")
	s.Require().NoError(s.store.CreateContract(ctx, c))

	batch := []contracts.AuditEntry{
		{ID: uuid.NewString(), ContractID: c.ID, Action: "Status Alterado", Details: "a -> b", Actor: "uid-1"},
		{ID: uuid.NewString(), ContractID: c.ID, Action: "Valor Total Alterado", Details: "1.00 -> 2.00", Actor: "uid-1"},
		{ID: uuid.NewString(), ContractID: c.ID, Action: "Setor Alterado", Details: "TI -> RH", Actor: "uid-1"},
	}
	s.Require().NoError(s.store.AppendAuditEntries(ctx, batch))

	entries, err := s.store.ListAuditEntries(ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	for _, e := range entries[1:] {
		s.True(entries[0].CreatedAt.Equal(e.CreatedAt), "batch entries must share one timestamp")
	}
}

func (s *PostgresStoreSuite) TestArchiveRoundTrip() {
	ctx := context.Background()
	c := newTestContract("Lease A")
	s.Require().NoError(s.store.CreateContract(ctx, c))

	att := contracts.Attachment{
		ID: uuid.NewString(), ContractID: c.ID, Name: "contrato.pdf",
		StoragePath: "contracts/" + c.ID + "/1_contrato.pdf",
		URL:         "https://files/contratos/x", UploadedBy: "uid-1",
		UploadedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.AddAttachment(ctx, att))

	deletedAt := time.Now().UTC().Truncate(time.Microsecond)
	archived := contracts.ArchivedContract{
		ContractID:  c.ID,
		Contract:    c,
		Attachments: []contracts.Attachment{att},
		AuditLog:    nil,
		DeletedBy:   "admin-1",
		DeletedAt:   deletedAt,
	}
	s.Require().NoError(s.store.ArchiveContract(ctx, archived))

	got, err := s.store.GetArchivedContract(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.Title, got.Contract.Title)
	s.Equal(c.Status, got.Contract.Status)
	s.Equal(c.TotalValue, got.Contract.TotalValue)
	s.Require().Len(got.Attachments, 1)
	s.Equal(att.StoragePath, got.Attachments[0].StoragePath)
	s.Equal("admin-1", got.DeletedBy)
	s.True(deletedAt.Equal(got.DeletedAt))
}

func (s *PostgresStoreSuite) TestArchiveTwiceConflicts() {
	ctx := context.Background()
	c := newTestContract("Lease A")
	s.Require().NoError(s.store.CreateContract(ctx, c))

	archived := contracts.ArchivedContract{ContractID: c.ID, Contract: c, DeletedBy: "admin-1", DeletedAt: time.Now()}
	s.Require().NoError(s.store.ArchiveContract(ctx, archived))
	s.ErrorIs(s.store.ArchiveContract(ctx, archived), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestPurgeRemovesWholeTree() {
	ctx := context.Background()
	c := newTestContract("Lease A")
	s.Require().NoError(s.store.CreateContract(ctx, c))
	s.Require().NoError(s.store.AddAttachment(ctx, contracts.Attachment{
		ID: uuid.NewString(), ContractID: c.ID, Name: "a.pdf", UploadedAt: time.Now(),
	}))
	s.Require().NoError(s.store.AppendAuditEntries(ctx, []contracts.AuditEntry{
		{ID: uuid.NewString(), ContractID: c.ID, Action: "Contrato Criado"},
	}))

	s.Require().NoError(s.store.PurgeContractTree(ctx, c.ID))

	_, err := s.store.GetContract(ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	atts, err := s.store.ListAttachments(ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(atts)
	entries, err := s.store.ListAuditEntries(ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *PostgresStoreSuite) TestPurgeMissingContract() {
	err := s.store.PurgeContractTree(context.Background(), uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
