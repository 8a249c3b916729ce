package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pliu/entradas/internal/models"
	"github.com/pliu/entradas/internal/store"
)

const entryColumns = "id, COALESCE(titulo, ''), COALESCE(ciudad, ''), COALESCE(fecha, ''), COALESCE(precio, 0), vendedor_id, comprador_id"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var (
		entry  models.Entry
		seller sql.NullInt64
		buyer  sql.NullInt64
	)
	if err := row.Scan(&entry.ID, &entry.Title, &entry.City, &entry.Date, &entry.Price, &seller, &buyer); err != nil {
		return nil, err
	}
	if seller.Valid {
		entry.SellerID = &seller.Int64
	}
	if buyer.Valid {
		entry.BuyerID = &buyer.Int64
	}
	return &entry, nil
}

func (s *SQLStore) CreateEntry(ctx context.Context, sellerID int64, fields store.EntryFields) (int64, error) {
	if strings.TrimSpace(fields.Title) == "" {
		return 0, store.Validationf("titulo is required")
	}
	if sellerID <= 0 {
		return 0, store.Validationf("vendedor_id is required")
	}

	var id int64
	query := s.rebind(`
		INSERT INTO entries (titulo, ciudad, fecha, precio, vendedor_id)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := s.db.QueryRowContext(ctx, query, fields.Title, fields.City, fields.Date, fields.Price, sellerID).Scan(&id)
	if err != nil {
		return 0, wrap("create entry", err)
	}
	return id, nil
}

func (s *SQLStore) GetEntry(ctx context.Context, id int64) (*models.Entry, error) {
	query := s.rebind("SELECT " + entryColumns + " FROM entries WHERE id = ?")
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrap(fmt.Sprintf("get entry %d", id), err)
	}
	return entry, nil
}

func (s *SQLStore) ListEntries(ctx context.Context, filter store.EntryFilter) ([]models.Entry, error) {
	var (
		where []string
		args  []any
	)
	if filter.SellerID > 0 {
		where = append(where, "vendedor_id = ?")
		args = append(args, filter.SellerID)
	}
	if filter.BuyerID > 0 {
		where = append(where, "comprador_id = ?")
		args = append(args, filter.BuyerID)
	}
	if filter.OnlyUnsold {
		where = append(where, "comprador_id IS NULL")
	}

	query := "SELECT " + entryColumns + " FROM entries"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY fecha ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, wrap("list entries", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, wrap("list entries", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list entries", err)
	}
	return entries, nil
}

// Purchase assigns the buyer only while comprador_id is still NULL, in the
// same UPDATE that checks it. Of several concurrent buyers exactly one
// changes a row.
func (s *SQLStore) Purchase(ctx context.Context, entryID, buyerID int64) error {
	if buyerID <= 0 {
		return store.Validationf("comprador_id is required")
	}

	query := "UPDATE entries SET comprador_id = ? WHERE id = ? AND comprador_id IS NULL"
	args := []any{buyerID, entryID}
	if !s.allowSelfPurchase {
		query += " AND (vendedor_id IS NULL OR vendedor_id <> ?)"
		args = append(args, buyerID)
	}

	changed, err := s.execChanged(ctx, "purchase entry", query, args...)
	if err != nil {
		return err
	}
	if changed {
		return nil
	}

	// Nothing changed; find out why. A sold entry can neither be unsold
	// nor deleted, so this read cannot contradict the failed update.
	entry, err := s.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Sold() {
		return fmt.Errorf("purchase entry %d: %w", entryID, store.ErrAlreadySold)
	}
	return fmt.Errorf("purchase entry %d: %w", entryID, store.ErrSelfPurchase)
}

func (s *SQLStore) DeleteEntry(ctx context.Context, entryID int64) error {
	changed, err := s.execChanged(ctx, "delete entry",
		"DELETE FROM entries WHERE id = ? AND comprador_id IS NULL", entryID)
	if err != nil {
		return err
	}
	if changed {
		return nil
	}

	exists, err := s.entryExists(ctx, entryID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("delete entry %d: %w", entryID, store.ErrEntrySold)
	}
	return fmt.Errorf("delete entry %d: %w", entryID, store.ErrNotFound)
}

func (s *SQLStore) UpdateEntry(ctx context.Context, entryID int64, fields store.EntryFields) error {
	changed, err := s.execChanged(ctx, "update entry", `
		UPDATE entries
		SET titulo = ?, ciudad = ?, fecha = ?, precio = ?
		WHERE id = ?
	`, fields.Title, fields.City, fields.Date, fields.Price, entryID)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("update entry %d: %w", entryID, store.ErrNotFound)
	}
	return nil
}

func (s *SQLStore) entryExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := s.rebind("SELECT EXISTS(SELECT 1 FROM entries WHERE id = ?)")
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, wrap("entry exists", err)
	}
	return exists, nil
}

func (s *SQLStore) execChanged(ctx context.Context, op, query string, args ...any) (bool, error) {
	n, err := s.execCount(ctx, op, query, args...)
	return n > 0, err
}

func (s *SQLStore) execCount(ctx context.Context, op, query string, args ...any) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return 0, wrap(op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, wrap(op, err)
	}
	return n, nil
}
