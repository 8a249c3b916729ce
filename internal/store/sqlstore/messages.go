package sqlstore

import (
	"context"
	"strings"

	"github.com/pliu/entradas/internal/models"
	"github.com/pliu/entradas/internal/store"
)

// SendMessage appends an unread message. Sender, receiver and entry are not
// checked for existence.
func (s *SQLStore) SendMessage(ctx context.Context, senderID, receiverID, entryID int64, content string) (int64, error) {
	switch {
	case senderID <= 0:
		return 0, store.Validationf("sender_id is required")
	case receiverID <= 0:
		return 0, store.Validationf("receiver_id is required")
	case entryID <= 0:
		return 0, store.Validationf("entry_id is required")
	case strings.TrimSpace(content) == "":
		return 0, store.Validationf("content is required")
	}

	var id int64
	query := s.rebind(`
		INSERT INTO messages (sender_id, receiver_id, entry_id, content, timestamp, leido)
		VALUES (?, ?, ?, ?, ?, 0)
		RETURNING id
	`)
	s.sendMu.Lock()
	err := s.db.QueryRowContext(ctx, query, senderID, receiverID, entryID, content, s.clock.Now()).Scan(&id)
	s.sendMu.Unlock()
	if err != nil {
		return 0, wrap("send message", err)
	}
	return id, nil
}

// ListConversation returns the messages between userA and userB about one
// entry in both directions, oldest first.
func (s *SQLStore) ListConversation(ctx context.Context, entryID, userA, userB int64) ([]models.Message, error) {
	query := s.rebind(`
		SELECT id, sender_id, receiver_id, entry_id, COALESCE(content, ''), timestamp, COALESCE(leido, 0)
		FROM messages
		WHERE entry_id = ?
		AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
		ORDER BY timestamp ASC, id ASC
	`)
	rows, err := s.db.QueryContext(ctx, query, entryID, userA, userB, userB, userA)
	if err != nil {
		return nil, wrap("list conversation", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var (
			m  models.Message
			ts dbTime
		)
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.EntryID, &m.Content, &ts, &m.Read); err != nil {
			return nil, wrap("list conversation", err)
		}
		m.Timestamp = ts.Time
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list conversation", err)
	}
	return messages, nil
}

// MarkRead flags as read the unread messages senderID sent to receiverID
// about entryID and returns how many changed.
func (s *SQLStore) MarkRead(ctx context.Context, entryID, receiverID, senderID int64) (int64, error) {
	return s.execCount(ctx, "mark read", `
		UPDATE messages
		SET leido = 1
		WHERE entry_id = ? AND sender_id = ? AND receiver_id = ? AND leido = 0
	`, entryID, senderID, receiverID)
}

// MarkReadAll flags as read every unread message addressed to receiverID
// about entryID, whoever sent it.
func (s *SQLStore) MarkReadAll(ctx context.Context, entryID, receiverID int64) (int64, error) {
	return s.execCount(ctx, "mark read all", `
		UPDATE messages SET leido = 1
		WHERE entry_id = ? AND receiver_id = ? AND leido = 0
	`, entryID, receiverID)
}
