package models

import "time"

type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"` // bcrypt hash
}

// Entry is a listing for sale. BuyerID is nil until the entry is bought.
type Entry struct {
	ID       int64   `json:"id"`
	Title    string  `json:"titulo"`
	City     string  `json:"ciudad"`
	Date     string  `json:"fecha"`
	Price    float64 `json:"precio"`
	SellerID *int64  `json:"vendedor_id"`
	BuyerID  *int64  `json:"comprador_id"`
}

// Sold reports whether the entry already has a buyer.
func (e *Entry) Sold() bool {
	return e.BuyerID != nil
}

type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	EntryID    int64     `json:"entry_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Read       bool      `json:"leido"`
}

// Conversation is derived from the messages exchanged by two users about
// one entry. It is never stored.
type Conversation struct {
	EntryID         int64     `json:"entry_id"`
	EntryTitle      string    `json:"titulo"`
	CounterpartID   int64     `json:"otro_usuario_id"`
	CounterpartName string    `json:"nombre_otro_usuario"`
	UnreadCount     int       `json:"no_leidos"`
	LastActivity    time.Time `json:"ultimo_mensaje"`
}

type Stats struct {
	Registrations int `json:"registrations"`
	EntriesPosted int `json:"entradas_publicadas"`
	EntriesSold   int `json:"entradas_vendidas"`
	Messages      int `json:"mensajes"`
	Conversations int `json:"conversaciones"`
}
