package model

import "time"

// Gift records a peer-to-peer item transfer. A gift row is created only after
// the ownership transfer has been applied in the same transaction, so the
// existence of a gift is proof the transfer committed.
//
// Gifts are immutable except for the open transition: Opened flips false→true
// exactly once, setting OpenedAt. There is no way back.
type Gift struct {
	ID         string     `json:"id"`
	SenderID   int64      `json:"senderId"`
	ReceiverID int64      `json:"receiverId"`
	ItemID     string     `json:"itemId"`
	Message    string     `json:"message"`
	Opened     bool       `json:"opened"`
	SentAt     time.Time  `json:"sentAt"`
	OpenedAt   *time.Time `json:"openedAt,omitempty"`
}
