package racks

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/internal/history"
	"github.com/coldrackhq/coldrack-backend/internal/permissions"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	"github.com/coldrackhq/coldrack-backend/pkg/enums"
	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
	"github.com/coldrackhq/coldrack-backend/pkg/outbox"
)

type gormTx struct {
	conn *gorm.DB
}

func (g gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.conn.WithContext(ctx).Transaction(fn)
}

// sabotageTx commits nothing: it runs the unit of work, then forces a
// rollback, simulating a write failure at the end of the transaction.
type sabotageTx struct {
	conn *gorm.DB
	err  error
}

func (s sabotageTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		return s.err
	})
}

func newRacksDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:racks_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	for _, schema := range []string{
		`CREATE TABLE racks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			line TEXT NOT NULL,
			capacity INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE rack_placements (
			id TEXT PRIMARY KEY,
			rack_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			floor INTEGER NOT NULL DEFAULT 1,
			weight_kg NUMERIC NOT NULL DEFAULT 0,
			manufacturer TEXT NOT NULL DEFAULT '',
			inbound_at DATETIME,
			outbound_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE activity_records (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			actor_id TEXT,
			actor_name TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL,
			details TEXT,
			created_at DATETIME
		)`,
		`CREATE TABLE change_events (
			id TEXT PRIMARY KEY,
			table_name TEXT NOT NULL,
			action TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			actor_id TEXT,
			payload TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			attempt_count INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			occurred_at DATETIME,
			published_at DATETIME
		)`,
	} {
		require.NoError(t, conn.Exec(schema).Error)
	}
	return conn
}

func newRacksService(t *testing.T, conn *gorm.DB, tx transactor) Service {
	t.Helper()
	if tx == nil {
		tx = gormTx{conn: conn}
	}
	recorder, err := history.NewRecorder(history.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Tx:       tx,
		Repo:     NewRepository(conn),
		Recorder: recorder,
		Changes:  outbox.NewService(outbox.NewRepository(conn), nil),
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

func seedRack(t *testing.T, conn *gorm.DB, name, line string, products int) *models.Rack {
	t.Helper()
	rack := &models.Rack{
		ID:       uuid.New(),
		Name:     name,
		Line:     line,
		Capacity: 20,
	}
	for i := 0; i < products; i++ {
		rack.Placements = append(rack.Placements, models.RackPlacement{
			ID:           uuid.New(),
			RackID:       rack.ID,
			ProductID:    uuid.New(),
			Code:         "PRD-00" + string(rune('1'+i)),
			Name:         "상품 " + string(rune('A'+i)),
			Floor:        1,
			WeightKG:     decimal.NewFromInt(int64(10 + i)),
			Manufacturer: "콜드팜",
			InboundAt:    time.Now().UTC(),
		})
	}
	require.NoError(t, conn.Create(rack).Error)
	return rack
}

func manager() *permissions.Identity {
	return &permissions.Identity{
		UserID: uuid.New(),
		Name:   "Kim Manager",
		Role:   enums.UserRoleManager,
	}
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Model(model).Count(&count).Error)
	return count
}

func TestServiceCreateAndGetRack(t *testing.T) {
	conn := newRacksDB(t)
	svc := newRacksService(t, conn, nil)

	created, err := svc.Create(context.Background(), manager(), CreateRackRequest{
		Name: "A01", Line: "A", Capacity: 30,
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "A01", got.Name)
	require.Equal(t, int64(1), countRows(t, conn, &models.ActivityRecord{}))
	require.Equal(t, int64(1), countRows(t, conn, &models.ChangeEvent{}))
}

func TestServiceCopyRack(t *testing.T) {
	conn := newRacksDB(t)
	source := seedRack(t, conn, "A01", "A", 2)
	seedRack(t, conn, "A01 (2)", "A", 0)
	svc := newRacksService(t, conn, nil)

	clone, err := svc.Copy(context.Background(), manager(), source.ID)
	require.NoError(t, err)
	require.Equal(t, "A01 (3)", clone.Name)
	require.Equal(t, source.Line, clone.Line)
	require.Len(t, clone.Placements, 2)

	sourceIDs := map[uuid.UUID]bool{}
	for _, p := range source.Placements {
		sourceIDs[p.ProductID] = true
	}
	for _, p := range clone.Placements {
		require.False(t, sourceIDs[p.ProductID], "copied placement must carry a fresh product id")
		require.Equal(t, clone.ID, p.RackID)
	}
}

func TestServiceMoveLine(t *testing.T) {
	conn := newRacksDB(t)
	rack := seedRack(t, conn, "A01", "A", 0)
	svc := newRacksService(t, conn, nil)

	moved, err := svc.MoveLine(context.Background(), manager(), rack.ID, MoveLineRequest{Line: "B"})
	require.NoError(t, err)
	require.Equal(t, "B", moved.Line)

	var stored models.Rack
	require.NoError(t, conn.First(&stored, "id = ?", rack.ID).Error)
	require.Equal(t, "B", stored.Line)

	// Same line is a no-op with no new audit entry.
	before := countRows(t, conn, &models.ActivityRecord{})
	_, err = svc.MoveLine(context.Background(), manager(), rack.ID, MoveLineRequest{Line: "B"})
	require.NoError(t, err)
	require.Equal(t, before, countRows(t, conn, &models.ActivityRecord{}))
}

func TestServiceMoveProductRelocatesAtomically(t *testing.T) {
	conn := newRacksDB(t)
	source := seedRack(t, conn, "A01", "A", 1)
	dest := seedRack(t, conn, "B01", "B", 0)
	svc := newRacksService(t, conn, nil)
	productID := source.Placements[0].ProductID

	err := svc.MoveProduct(context.Background(), manager(), MoveProductRequest{
		ProductID:    productID,
		SourceRackID: source.ID,
		DestRackID:   dest.ID,
	})
	require.NoError(t, err)

	var inSource, inDest int64
	require.NoError(t, conn.Model(&models.RackPlacement{}).
		Where("rack_id = ? AND product_id = ?", source.ID, productID).Count(&inSource).Error)
	require.NoError(t, conn.Model(&models.RackPlacement{}).
		Where("rack_id = ? AND product_id = ?", dest.ID, productID).Count(&inDest).Error)
	require.Equal(t, int64(0), inSource)
	require.Equal(t, int64(1), inDest)
}

func TestServiceMoveProductRetryIsNoop(t *testing.T) {
	conn := newRacksDB(t)
	source := seedRack(t, conn, "A01", "A", 1)
	dest := seedRack(t, conn, "B01", "B", 0)
	svc := newRacksService(t, conn, nil)
	productID := source.Placements[0].ProductID

	req := MoveProductRequest{
		ProductID:    productID,
		SourceRackID: source.ID,
		DestRackID:   dest.ID,
	}
	require.NoError(t, svc.MoveProduct(context.Background(), manager(), req))

	events := countRows(t, conn, &models.ChangeEvent{})
	require.NoError(t, svc.MoveProduct(context.Background(), manager(), req))
	require.Equal(t, events, countRows(t, conn, &models.ChangeEvent{}), "retry must not emit another event")

	var inDest int64
	require.NoError(t, conn.Model(&models.RackPlacement{}).
		Where("rack_id = ? AND product_id = ?", dest.ID, productID).Count(&inDest).Error)
	require.Equal(t, int64(1), inDest)
}

func TestServiceMoveProductSameRackIsNoop(t *testing.T) {
	conn := newRacksDB(t)
	source := seedRack(t, conn, "A01", "A", 1)
	svc := newRacksService(t, conn, nil)

	err := svc.MoveProduct(context.Background(), manager(), MoveProductRequest{
		ProductID:    source.Placements[0].ProductID,
		SourceRackID: source.ID,
		DestRackID:   source.ID,
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), countRows(t, conn, &models.ChangeEvent{}))
}

func TestServiceMoveProductUnplacedProduct(t *testing.T) {
	conn := newRacksDB(t)
	source := seedRack(t, conn, "A01", "A", 0)
	dest := seedRack(t, conn, "B01", "B", 0)
	svc := newRacksService(t, conn, nil)

	err := svc.MoveProduct(context.Background(), manager(), MoveProductRequest{
		ProductID:    uuid.New(),
		SourceRackID: source.ID,
		DestRackID:   dest.ID,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceMoveProductFailureLeavesBothRacksUntouched(t *testing.T) {
	conn := newRacksDB(t)
	source := seedRack(t, conn, "A01", "A", 1)
	dest := seedRack(t, conn, "B01", "B", 0)
	svc := newRacksService(t, conn, sabotageTx{conn: conn, err: gorm.ErrInvalidTransaction})
	productID := source.Placements[0].ProductID

	err := svc.MoveProduct(context.Background(), manager(), MoveProductRequest{
		ProductID:    productID,
		SourceRackID: source.ID,
		DestRackID:   dest.ID,
	})
	require.Error(t, err)

	var inSource, inDest int64
	require.NoError(t, conn.Model(&models.RackPlacement{}).
		Where("rack_id = ? AND product_id = ?", source.ID, productID).Count(&inSource).Error)
	require.NoError(t, conn.Model(&models.RackPlacement{}).
		Where("rack_id = ? AND product_id = ?", dest.ID, productID).Count(&inDest).Error)
	require.Equal(t, int64(1), inSource, "failed move must keep the source placement")
	require.Equal(t, int64(0), inDest, "failed move must not leave a destination placement")
	require.Equal(t, int64(0), countRows(t, conn, &models.ChangeEvent{}))
}

func TestServiceReconcileKeepsNewestPlacement(t *testing.T) {
	conn := newRacksDB(t)
	rackA := seedRack(t, conn, "A01", "A", 0)
	rackB := seedRack(t, conn, "B01", "B", 0)
	svc := newRacksService(t, conn, nil)

	productID := uuid.New()
	older := models.RackPlacement{
		ID: uuid.New(), RackID: rackA.ID, ProductID: productID,
		Code: "PRD-009", Name: "중복 상품", Floor: 1,
		WeightKG: decimal.NewFromInt(5), Manufacturer: "콜드팜",
		InboundAt: time.Now().UTC(),
		UpdatedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	newer := older
	newer.ID = uuid.New()
	newer.RackID = rackB.ID
	newer.UpdatedAt = time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, conn.Create(&older).Error)
	require.NoError(t, conn.Create(&newer).Error)

	removed, err := svc.ReconcilePlacements(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	var remaining []models.RackPlacement
	require.NoError(t, conn.Where("product_id = ?", productID).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, rackB.ID, remaining[0].RackID)
}

func TestServiceDeleteRackRemovesPlacements(t *testing.T) {
	conn := newRacksDB(t)
	rack := seedRack(t, conn, "A01", "A", 2)
	svc := newRacksService(t, conn, nil)

	require.NoError(t, svc.Delete(context.Background(), manager(), rack.ID))
	require.Equal(t, int64(0), countRows(t, conn, &models.Rack{}))
	require.Equal(t, int64(0), countRows(t, conn, &models.RackPlacement{}))
}

func TestServiceAddProductValidation(t *testing.T) {
	conn := newRacksDB(t)
	rack := seedRack(t, conn, "A01", "A", 0)
	svc := newRacksService(t, conn, nil)

	_, err := svc.AddProduct(context.Background(), manager(), rack.ID, AddProductRequest{
		Code: "PRD-001", Name: "상품", Floor: 5,
		WeightKG: decimal.NewFromInt(10), Manufacturer: "콜드팜",
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	placed, err := svc.AddProduct(context.Background(), manager(), rack.ID, AddProductRequest{
		Code: "PRD-001", Name: "상품",
		WeightKG: decimal.NewFromInt(10), Manufacturer: "콜드팜",
	})
	require.NoError(t, err)
	require.Equal(t, 1, placed.Floor, "floor defaults to 1")
}

func TestServiceOutboundProductOnce(t *testing.T) {
	conn := newRacksDB(t)
	rack := seedRack(t, conn, "A01", "A", 1)
	svc := newRacksService(t, conn, nil)
	productID := rack.Placements[0].ProductID

	out, err := svc.OutboundProduct(context.Background(), manager(), rack.ID, productID)
	require.NoError(t, err)
	require.NotNil(t, out.OutboundAt)

	_, err = svc.OutboundProduct(context.Background(), manager(), rack.ID, productID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}
