// /home/krylon/go/src/github.com/blicero/mnemosyne/database/initqueries.go
// -*- mode: go; coding: utf-8; -*-
// Created on 06. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-21 19:20:05 krylon>

package database

var initQueries = []string{
	`
CREATE TABLE reminder (
    id      INTEGER PRIMARY KEY,
    event   TEXT NOT NULL,
    due     INTEGER NOT NULL,
    chat_id INTEGER NOT NULL,
    uuid    TEXT UNIQUE NOT NULL,
    changed INTEGER NOT NULL,
    CHECK (event <> '')
)
`,
	"CREATE INDEX reminder_due_idx ON reminder (due)",
	"CREATE INDEX reminder_event_idx ON reminder (event)",
}
