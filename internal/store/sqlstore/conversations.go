package sqlstore

import (
	"context"

	"github.com/pliu/entradas/internal/models"
)

// A conversation is keyed by entry and the unordered user pair. Both
// queries below group by these expressions so they always agree.
const (
	pairLow  = "CASE WHEN m.sender_id < m.receiver_id THEN m.sender_id ELSE m.receiver_id END"
	pairHigh = "CASE WHEN m.sender_id < m.receiver_id THEN m.receiver_id ELSE m.sender_id END"
)

// ListConversations returns one row per conversation userID takes part in,
// most recently active first.
func (s *SQLStore) ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error) {
	query := s.rebind(`
		SELECT
			c.entry_id,
			COALESCE(e.titulo, ''),
			c.other_id,
			COALESCE(u.name, ''),
			c.unread,
			c.last_at
		FROM (
			SELECT
				m.entry_id AS entry_id,
				` + pairLow + ` AS lo,
				` + pairHigh + ` AS hi,
				MAX(CASE WHEN m.sender_id = ? THEN m.receiver_id ELSE m.sender_id END) AS other_id,
				SUM(CASE WHEN m.receiver_id = ? AND COALESCE(m.leido, 0) = 0 THEN 1 ELSE 0 END) AS unread,
				MAX(m.timestamp) AS last_at,
				MAX(m.id) AS last_id
			FROM messages m
			WHERE m.sender_id = ? OR m.receiver_id = ?
			GROUP BY m.entry_id, lo, hi
		) c
		LEFT JOIN entries e ON e.id = c.entry_id
		LEFT JOIN users u ON u.id = c.other_id
		ORDER BY c.last_at DESC, c.last_id DESC
	`)

	rows, err := s.db.QueryContext(ctx, query, userID, userID, userID, userID)
	if err != nil {
		return nil, wrap("list conversations", err)
	}
	defer rows.Close()

	conversations := []models.Conversation{}
	for rows.Next() {
		var (
			c    models.Conversation
			last dbTime
		)
		if err := rows.Scan(&c.EntryID, &c.EntryTitle, &c.CounterpartID, &c.CounterpartName, &c.UnreadCount, &last); err != nil {
			return nil, wrap("list conversations", err)
		}
		c.LastActivity = last.Time
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list conversations", err)
	}
	return conversations, nil
}

// CountConversations counts distinct conversations across the whole ledger.
func (s *SQLStore) CountConversations(ctx context.Context) (int, error) {
	return s.count(ctx, "count conversations", `
		SELECT COUNT(*) FROM (
			SELECT m.entry_id, `+pairLow+` AS lo, `+pairHigh+` AS hi
			FROM messages m
			GROUP BY m.entry_id, lo, hi
		) c
	`)
}
