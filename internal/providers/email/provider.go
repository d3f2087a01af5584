// Package email sends transactional mail. Delivery is best effort; the
// flows that send receipts never fail on a mail error.
package email

import "context"

type Message struct {
	To      string
	Subject string
	Body    string
}

type Provider interface {
	Send(ctx context.Context, msg Message) error
}
