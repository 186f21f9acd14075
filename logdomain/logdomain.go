// /home/krylon/go/src/github.com/blicero/mnemosyne/logdomain/logdomain.go
// -*- mode: go; coding: utf-8; -*-
// Created on 03. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-11 18:46:20 krylon>

// Package logdomain provides symbolic constants to identify the various
// "areas" of the application that perform logging.
package logdomain

//go:generate stringer -type=ID

// ID represents an area of concern.
type ID uint8

// These constants identify the various logging domains.
const (
	Common ID = iota
	Backend
	Bot
	Client
	Database
	DBus
	Resolver
	Scheduler
	Web
)

// AllDomains returns a slice of all the valid values for ID.
func AllDomains() []ID {
	return []ID{
		Common,
		Backend,
		Bot,
		Client,
		Database,
		DBus,
		Resolver,
		Scheduler,
		Web,
	}
} // func AllDomains() []ID
