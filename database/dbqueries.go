// /home/krylon/go/src/github.com/blicero/mnemosyne/database/dbqueries.go
// -*- mode: go; coding: utf-8; -*-
// Created on 06. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-29 16:48:51 krylon>

package database

import "github.com/blicero/mnemosyne/database/query"

var dbQueries = map[query.ID]string{
	query.ReminderAdd: `
INSERT INTO reminder (event, due, chat_id, uuid, changed)
VALUES               (    ?,   ?,       ?,    ?,       ?)
`,
	query.ReminderDelete: "DELETE FROM reminder WHERE id = ?",
	query.ReminderGetByID: `
SELECT
    event,
    due,
    chat_id,
    uuid,
    changed
FROM reminder
WHERE id = ?
`,
	query.ReminderGetByEvent: `
SELECT
    id,
    due,
    chat_id,
    uuid,
    changed
FROM reminder
WHERE event = ?
ORDER BY id
LIMIT 1
`,
	query.ReminderGetAll: `
SELECT
    id,
    event,
    due,
    chat_id,
    uuid,
    changed
FROM reminder
ORDER BY id
`,
}
