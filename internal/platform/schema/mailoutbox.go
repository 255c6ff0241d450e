// Copyright (c) 2026 Folivafy authors. All rights reserved.

package schema

// MailOutboxTable represents the 'folivafy.mail_outbox' table.
type MailOutboxTable struct {
	Table     string
	ID        string
	To        string
	Subject   string
	BodyText  string
	BodyHTML  string
	Metadata  string
	CreatedAt string
	SentAt    string
}

// MailOutbox is the schema definition for folivafy.mail_outbox.
var MailOutbox = MailOutboxTable{
	Table:     "folivafy.mail_outbox",
	ID:        "id",
	To:        "recipients",
	Subject:   "subject",
	BodyText:  "body_text",
	BodyHTML:  "body_html",
	Metadata:  "metadata",
	CreatedAt: "created_at",
	SentAt:    "sent_at",
}

func (t MailOutboxTable) Columns() []string {
	return []string{t.ID, t.To, t.Subject, t.BodyText, t.BodyHTML, t.Metadata, t.CreatedAt, t.SentAt}
}
