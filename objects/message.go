// /home/krylon/go/src/github.com/blicero/mnemosyne/objects/message.go
// -*- mode: go; coding: utf-8; -*-
// Created on 04. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-28 17:33:02 krylon>

package objects

//go:generate ffjson message.go

// Message is an inbound chat message: the conversation it arrived in
// and the raw text the user typed.
type Message struct {
	ChatID int64
	Text   string
}
