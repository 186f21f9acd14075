// /home/krylon/go/src/github.com/blicero/mnemosyne/objects/reminder.go
// -*- mode: go; coding: utf-8; -*-
// Created on 03. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-05-04 21:10:36 krylon>

// Package objects provides the data types used by the application.
package objects

import (
	"fmt"
	"time"

	"github.com/blicero/mnemosyne/common"
)

//go:generate ffjson reminder.go

// Reminder is a single scheduled notification: some event the user wants
// to be reminded of at a specific point in time, tied to the conversation
// it was created in.
type Reminder struct {
	ID        int64
	Event     string
	Timestamp time.Time
	ChatID    int64
	UUID      string
	Changed   time.Time
}

// IsDue returns true if the Reminder's fire time has passed.
func (r *Reminder) IsDue() bool {
	return r.Timestamp.Before(time.Now())
} // func (r *Reminder) IsDue() bool

// Payload returns the text that is delivered to the user when the
// Reminder fires.
func (r *Reminder) Payload() string {
	return fmt.Sprintf("Напоминаю: %s", r.Event)
} // func (r *Reminder) Payload() string

// DueString renders the fire time the way the list command displays it.
func (r *Reminder) DueString() string {
	return r.Timestamp.Format(common.TimestampFormatList)
} // func (r *Reminder) DueString() string

// UniqueID returns an identifier that is unique across instances,
// i.e. a UUID.
func (r *Reminder) UniqueID() string {
	return r.UUID
} // func (r *Reminder) UniqueID() string

func (r *Reminder) String() string {
	return fmt.Sprintf("Reminder{ ID: %d, Event: %q, Timestamp: %s, ChatID: %d }",
		r.ID,
		r.Event,
		r.Timestamp.Format(common.TimestampFormat),
		r.ChatID)
} // func (r *Reminder) String() string
