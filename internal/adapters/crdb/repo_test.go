package crdb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/caioevelyn/giftregistry/internal/adapters/crdb"
	"github.com/caioevelyn/giftregistry/internal/domain"
)

func newTestRepository(t *testing.T, ctx context.Context) *crdb.Repository {
	t.Helper()

	crdbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "cockroachdb/cockroach:v24.1.1",
			Cmd:          []string{"start-single-node", "--insecure"},
			ExposedPorts: []string{"26257/tcp"},
			WaitingFor:   wait.ForHTTP("/health?ready=1").WithPort("8080"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { crdbContainer.Terminate(ctx) })

	dsn, err := crdbContainer.Endpoint(ctx, "postgresql")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, dsn+"/defaultdb?sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	repo := crdb.NewRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestRepository_Reserve(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	item := domain.NewCatalogItem("Cafeteira", "", "", "", domain.CategoryKitchen, false, 1)
	if err := repo.CreateItem(ctx, item); err != nil {
		t.Fatal(err)
	}

	guestID := uuid.New()
	reserved, err := repo.Reserve(ctx, item.ID, guestID, "Lia Campos", time.Now())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reserved.PurchaseCount != 1 || !reserved.Reserved {
		t.Errorf("expected count 1 and reserved, got %d/%v", reserved.PurchaseCount, reserved.Reserved)
	}
	if reserved.ReservedBy != "Lia Campos" || reserved.ReservedByID == nil || *reserved.ReservedByID != guestID {
		t.Errorf("reserver not recorded: %q %v", reserved.ReservedBy, reserved.ReservedByID)
	}

	_, err = repo.Reserve(ctx, item.ID, uuid.New(), "Outro Convidado", time.Now())
	if !errors.Is(err, domain.ErrExhausted) {
		t.Errorf("expected exhausted error, got %v", err)
	}

	_, err = repo.Reserve(ctx, uuid.New(), guestID, "Lia Campos", time.Now())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestRepository_Reserve_MultiUnit(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	item := domain.NewCatalogItem("Jogo de Taças", "", "", "", domain.CategoryKitchen, true, 3)
	if err := repo.CreateItem(ctx, item); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 3; i++ {
		got, err := repo.Reserve(ctx, item.ID, uuid.New(), "Convidado", time.Now())
		if err != nil {
			t.Fatalf("unit %d: %v", i, err)
		}
		if got.PurchaseCount != i {
			t.Errorf("unit %d: count %d", i, got.PurchaseCount)
		}
		if got.Reserved != (i == 3) {
			t.Errorf("unit %d: reserved %v", i, got.Reserved)
		}
	}

	if _, err := repo.Reserve(ctx, item.ID, uuid.New(), "Convidado", time.Now()); !errors.Is(err, domain.ErrExhausted) {
		t.Errorf("expected exhausted error, got %v", err)
	}
}

func TestRepository_Finalize(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	guest := domain.NewGuest("Lia Campos", "11987654321", time.Now())
	if err := repo.CreateGuest(ctx, guest); err != nil {
		t.Fatal(err)
	}
	item := domain.NewCatalogItem("Faqueiro", "", "", "", domain.CategoryKitchen, false, 1)
	if err := repo.CreateItem(ctx, item); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Reserve(ctx, item.ID, guest.ID, guest.Name, time.Now()); err != nil {
		t.Fatal(err)
	}

	amount, _ := domain.ParseAmount("123.45")
	pledge := domain.NewPledgeContribution(guest.ID, guest.Name, guest.Phone, amount, time.Now())
	events := []domain.Event{
		domain.NewEvent("pledge", pledge.ID, "pledge.recorded", []byte(`{}`)),
		domain.NewEvent("guest", guest.ID, "guest.confirmed", []byte(`{}`)),
	}

	confirmedAt := time.Now()
	err := repo.Finalize(ctx, guest.ID, confirmedAt, &item.ID, item.Name, &pledge, events)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	fetched, err := repo.GetGuest(ctx, guest.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !fetched.Confirmed() {
		t.Fatal("guest not confirmed after finalize")
	}
	if fetched.GiftID == nil || *fetched.GiftID != item.ID || fetched.GiftName != item.Name {
		t.Errorf("gift cross-reference missing: %v %q", fetched.GiftID, fetched.GiftName)
	}
	if fetched.PledgeAmount == nil || *fetched.PledgeAmount != amount {
		t.Errorf("pledge cross-reference missing: %v", fetched.PledgeAmount)
	}

	agg, err := repo.PledgeAggregate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if agg.Count != 1 || agg.Sum != amount {
		t.Errorf("expected aggregate 1/%s, got %d/%s", amount, agg.Count, agg.Sum)
	}

	// Drain the staged events the way the publisher does: fetch and mark
	// inside one transaction, so the row locks cover the whole batch.
	err = repo.WithTx(ctx, func(tx pgx.Tx) error {
		staged, err := repo.GetUnpublishedOutbox(ctx, tx, 10)
		if err != nil {
			return err
		}
		if len(staged) != len(events) {
			t.Errorf("expected %d staged events, got %d", len(events), len(staged))
		}
		for _, rec := range staged {
			if err := repo.MarkPublished(ctx, tx, rec.ID, time.Now()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	err = repo.WithTx(ctx, func(tx pgx.Tx) error {
		remaining, err := repo.GetUnpublishedOutbox(ctx, tx, 10)
		if err != nil {
			return err
		}
		if len(remaining) != 0 {
			t.Errorf("published records still fetched: %d", len(remaining))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	// The confirmed_at guard makes a retried finalize a no-op error, never a
	// second pledge row.
	err = repo.Finalize(ctx, guest.ID, time.Now(), &item.ID, item.Name, &pledge, nil)
	if !errors.Is(err, domain.ErrAlreadyConfirmed) {
		t.Errorf("expected already confirmed error, got %v", err)
	}
	agg, err = repo.PledgeAggregate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if agg.Count != 1 {
		t.Errorf("retry duplicated the pledge: count %d", agg.Count)
	}
}

func TestRepository_SetGuestMessage(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	guest := domain.NewGuest("Rafael Lima", "11912345678", time.Now())
	if err := repo.CreateGuest(ctx, guest); err != nil {
		t.Fatal(err)
	}

	if err := repo.SetGuestMessage(ctx, guest.ID, "Felicidades!"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("message before confirmation: expected invalid input, got %v", err)
	}

	if err := repo.Finalize(ctx, guest.ID, time.Now(), nil, "", nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetGuestMessage(ctx, guest.ID, "Felicidades!"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := repo.SetGuestMessage(ctx, guest.ID, "Outra mensagem"); !errors.Is(err, domain.ErrMessageAlreadySet) {
		t.Errorf("second message: expected already set error, got %v", err)
	}

	fetched, err := repo.GetGuest(ctx, guest.ID)
	if err != nil {
		t.Fatal(err)
	}
	if fetched.Message != "Felicidades!" {
		t.Errorf("first message should win, got %q", fetched.Message)
	}
}
