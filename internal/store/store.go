package store

import (
	"context"

	"github.com/pliu/entradas/internal/models"
)

type Store interface {
	UserStore
	EntryStore
	MessageStore
	ConversationStore
	StatsStore
	Close() error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, name, email string) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

// EntryFilter narrows ListEntries. Zero values match everything.
type EntryFilter struct {
	SellerID   int64
	BuyerID    int64
	OnlyUnsold bool
}

// EntryFields are the seller-editable attributes of an entry.
type EntryFields struct {
	Title string
	City  string
	Date  string
	Price float64
}

// EntryStore guards the entry lifecycle. Purchase and DeleteEntry check and
// mutate in a single statement so concurrent callers cannot both succeed.
type EntryStore interface {
	CreateEntry(ctx context.Context, sellerID int64, fields EntryFields) (int64, error)
	GetEntry(ctx context.Context, id int64) (*models.Entry, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]models.Entry, error)

	// Purchase sets the buyer of an unsold entry. It returns ErrAlreadySold
	// when the entry has a buyer and ErrNotFound when it does not exist.
	Purchase(ctx context.Context, entryID, buyerID int64) error

	// DeleteEntry removes an unsold entry. It returns ErrEntrySold when the
	// entry has a buyer and ErrNotFound when it does not exist.
	DeleteEntry(ctx context.Context, entryID int64) error

	// UpdateEntry overwrites the entry fields whether or not it is sold.
	UpdateEntry(ctx context.Context, entryID int64, fields EntryFields) error
}

// MessageStore is the append-only message ledger. Messages are never
// edited or deleted; only the read flag moves from false to true.
type MessageStore interface {
	SendMessage(ctx context.Context, senderID, receiverID, entryID int64, content string) (int64, error)
	ListConversation(ctx context.Context, entryID, userA, userB int64) ([]models.Message, error)
	MarkRead(ctx context.Context, entryID, receiverID, senderID int64) (int64, error)
	MarkReadAll(ctx context.Context, entryID, receiverID int64) (int64, error)
}

// ConversationStore derives conversations from the message ledger on every
// call. A conversation is keyed by entry and the unordered pair of users.
type ConversationStore interface {
	ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error)
	CountConversations(ctx context.Context) (int, error)
}

type StatsStore interface {
	CountUsers(ctx context.Context) (int, error)
	CountEntries(ctx context.Context) (int, error)
	CountSoldEntries(ctx context.Context) (int, error)
	CountMessages(ctx context.Context) (int, error)
}
