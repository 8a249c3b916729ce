package sqlstore

import "context"

func (s *SQLStore) CountUsers(ctx context.Context) (int, error) {
	return s.count(ctx, "count users", "SELECT COUNT(*) FROM users")
}

func (s *SQLStore) CountEntries(ctx context.Context) (int, error) {
	return s.count(ctx, "count entries", "SELECT COUNT(*) FROM entries")
}

func (s *SQLStore) CountSoldEntries(ctx context.Context) (int, error) {
	return s.count(ctx, "count sold entries", "SELECT COUNT(*) FROM entries WHERE comprador_id IS NOT NULL")
}

func (s *SQLStore) CountMessages(ctx context.Context) (int, error) {
	return s.count(ctx, "count messages", "SELECT COUNT(*) FROM messages")
}
