package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type processingService struct {
	pool *pgxpool.Pool
}

// NewProcessingService constructs a ProcessingService backed by PostgreSQL.
func NewProcessingService(pool *pgxpool.Pool) ProcessingService {
	return &processingService{pool: pool}
}

const processingColumns = `
	lp.id, lp.purchase_id, lp.processing_date::text,
	lp.nikashi_pkt, lp.purchase_cost, lp.nikashi_labour, lp.tayari_labour,
	lp.rent, lp.new_bags, lp.sutli, lp.pkt_collection, lp.raffu_chippi,
	lp.total_exps, lp.tayari_pkt, lp.tayari_wt, lp.charri_pkt, lp.charri_wt,
	lp.is_active, lp.created_at`

func scanProcessing(row pgx.Row) (*LotProcessing, error) {
	lp := &LotProcessing{}
	err := row.Scan(
		&lp.ID, &lp.PurchaseID, &lp.ProcessingDate,
		&lp.NikashiPkt, &lp.PurchaseCost, &lp.NikashiLabour, &lp.TayariLabour,
		&lp.Rent, &lp.NewBags, &lp.Sutli, &lp.PktCollection, &lp.RaffuChippi,
		&lp.TotalExps, &lp.TayariPkt, &lp.TayariWt, &lp.CharriPkt, &lp.CharriWt,
		&lp.IsActive, &lp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return lp, nil
}

// fetchProcessingsByPurchase loads active processing records for a set of
// purchases, grouped by purchase id.
func fetchProcessingsByPurchase(ctx context.Context, pool *pgxpool.Pool, purchaseIDs []int) (map[int][]LotProcessing, error) {
	rows, err := pool.Query(ctx,
		"SELECT "+processingColumns+` FROM lot_processings lp
		WHERE lp.purchase_id = ANY($1) AND lp.is_active = true
		ORDER BY lp.processing_date, lp.id`,
		purchaseIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch lot processings: %w", err)
	}
	defer rows.Close()

	byPurchase := make(map[int][]LotProcessing)
	for rows.Next() {
		lp, err := scanProcessing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot processing: %w", err)
		}
		byPurchase[lp.PurchaseID] = append(byPurchase[lp.PurchaseID], *lp)
	}
	return byPurchase, rows.Err()
}

// CreateOrAccumulate records a processing submission for a purchase. The
// first submission creates the record; every later one is folded into the
// existing cumulative values. The read-modify-write runs under a row lock so
// concurrent submissions for the same purchase serialize instead of losing
// updates.
func (s *processingService) CreateOrAccumulate(ctx context.Context, entry ProcessingEntry) (*LotProcessing, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Locking the purchase row serializes submissions for this lot,
	// including the submission that creates the processing record.
	var purchaseActive bool
	err = tx.QueryRow(ctx,
		"SELECT is_active FROM purchases WHERE id = $1 FOR UPDATE",
		entry.PurchaseID,
	).Scan(&purchaseActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("purchase not found")
		}
		return nil, fmt.Errorf("lock purchase %d: %w", entry.PurchaseID, err)
	}
	if !purchaseActive {
		return nil, NotFoundf("purchase not found")
	}

	existing, err := scanProcessing(tx.QueryRow(ctx,
		"SELECT "+processingColumns+` FROM lot_processings lp
		WHERE lp.purchase_id = $1 AND lp.is_active = true
		FOR UPDATE OF lp`,
		entry.PurchaseID,
	))
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lock lot processing for purchase %d: %w", entry.PurchaseID, err)
	}

	var id int
	if errors.Is(err, pgx.ErrNoRows) {
		fresh := &LotProcessing{PurchaseID: entry.PurchaseID}
		fresh.Apply(entry)
		err = tx.QueryRow(ctx, `
			INSERT INTO lot_processings (purchase_id, processing_date,
			            nikashi_pkt, purchase_cost, nikashi_labour, tayari_labour,
			            rent, new_bags, sutli, pkt_collection, raffu_chippi,
			            total_exps, tayari_pkt, tayari_wt, charri_pkt, charri_wt)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING id`,
			fresh.PurchaseID, fresh.ProcessingDate,
			fresh.NikashiPkt, fresh.PurchaseCost, fresh.NikashiLabour, fresh.TayariLabour,
			fresh.Rent, fresh.NewBags, fresh.Sutli, fresh.PktCollection, fresh.RaffuChippi,
			fresh.TotalExps, fresh.TayariPkt, fresh.TayariWt, fresh.CharriPkt, fresh.CharriWt,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert lot processing: %w", err)
		}
	} else {
		existing.Apply(entry)
		id = existing.ID
		_, err = tx.Exec(ctx, `
			UPDATE lot_processings
			SET processing_date = $1, nikashi_pkt = $2, purchase_cost = $3,
			    nikashi_labour = $4, tayari_labour = $5, rent = $6,
			    new_bags = $7, sutli = $8, pkt_collection = $9, raffu_chippi = $10,
			    total_exps = $11, tayari_pkt = $12, tayari_wt = $13,
			    charri_pkt = $14, charri_wt = $15
			WHERE id = $16`,
			existing.ProcessingDate, existing.NikashiPkt, existing.PurchaseCost,
			existing.NikashiLabour, existing.TayariLabour, existing.Rent,
			existing.NewBags, existing.Sutli, existing.PktCollection, existing.RaffuChippi,
			existing.TotalExps, existing.TayariPkt, existing.TayariWt,
			existing.CharriPkt, existing.CharriWt, id,
		)
		if err != nil {
			return nil, fmt.Errorf("accumulate lot processing %d: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit lot processing: %w", err)
	}
	return s.Get(ctx, id)
}

// Update overwrites fields directly (no accumulation) and recomputes
// totalExps when any cost component changed.
func (s *processingService) Update(ctx context.Context, id int, patch ProcessingPatch) (*LotProcessing, error) {
	lp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.ProcessingDate != nil {
		lp.ProcessingDate = patch.ProcessingDate
	}
	if patch.NikashiPkt != nil {
		lp.NikashiPkt = *patch.NikashiPkt
	}
	if patch.PurchaseCost != nil {
		lp.PurchaseCost = *patch.PurchaseCost
	}
	if patch.NikashiLabour != nil {
		lp.NikashiLabour = *patch.NikashiLabour
	}
	if patch.TayariLabour != nil {
		lp.TayariLabour = *patch.TayariLabour
	}
	if patch.Rent != nil {
		lp.Rent = *patch.Rent
	}
	if patch.NewBags != nil {
		lp.NewBags = *patch.NewBags
	}
	if patch.Sutli != nil {
		lp.Sutli = *patch.Sutli
	}
	if patch.PktCollection != nil {
		lp.PktCollection = *patch.PktCollection
	}
	if patch.RaffuChippi != nil {
		lp.RaffuChippi = *patch.RaffuChippi
	}
	if patch.TayariPkt != nil {
		lp.TayariPkt = *patch.TayariPkt
	}
	if patch.TayariWt != nil {
		lp.TayariWt = *patch.TayariWt
	}
	if patch.CharriPkt != nil {
		lp.CharriPkt = *patch.CharriPkt
	}
	if patch.CharriWt != nil {
		lp.CharriWt = *patch.CharriWt
	}
	lp.TotalExps = lp.ComponentTotal()

	_, err = s.pool.Exec(ctx, `
		UPDATE lot_processings
		SET processing_date = $1, nikashi_pkt = $2, purchase_cost = $3,
		    nikashi_labour = $4, tayari_labour = $5, rent = $6,
		    new_bags = $7, sutli = $8, pkt_collection = $9, raffu_chippi = $10,
		    total_exps = $11, tayari_pkt = $12, tayari_wt = $13,
		    charri_pkt = $14, charri_wt = $15
		WHERE id = $16`,
		lp.ProcessingDate, lp.NikashiPkt, lp.PurchaseCost,
		lp.NikashiLabour, lp.TayariLabour, lp.Rent,
		lp.NewBags, lp.Sutli, lp.PktCollection, lp.RaffuChippi,
		lp.TotalExps, lp.TayariPkt, lp.TayariWt,
		lp.CharriPkt, lp.CharriWt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update lot processing %d: %w", id, err)
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes a processing record. A later submission for the same
// purchase starts a fresh aggregate.
func (s *processingService) Delete(ctx context.Context, id int) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, "UPDATE lot_processings SET is_active = false WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete lot processing %d: %w", id, err)
	}
	return nil
}

// Get returns one processing record by id.
func (s *processingService) Get(ctx context.Context, id int) (*LotProcessing, error) {
	lp, err := scanProcessing(s.pool.QueryRow(ctx,
		"SELECT "+processingColumns+" FROM lot_processings lp WHERE lp.id = $1 AND lp.is_active = true", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundf("lot processing record not found")
		}
		return nil, fmt.Errorf("get lot processing %d: %w", id, err)
	}
	return lp, nil
}

// ListByPurchase returns active processing records for a purchase ordered by
// processing date then id.
func (s *processingService) ListByPurchase(ctx context.Context, purchaseID int) ([]LotProcessing, error) {
	byPurchase, err := fetchProcessingsByPurchase(ctx, s.pool, []int{purchaseID})
	if err != nil {
		return nil, err
	}
	return byPurchase[purchaseID], nil
}
