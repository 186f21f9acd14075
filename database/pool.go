// /home/krylon/go/src/github.com/blicero/mnemosyne/database/pool.go
// -*- mode: go; coding: utf-8; -*-
// Created on 07. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-04-22 16:54:10 krylon>

package database

import (
	"github.com/blicero/mnemosyne/common"
)

// Pool is a fixed-size pool of database connections.
// Obviously, it is safe for concurrent use.
type Pool struct {
	conns chan *Database
}

// NewPool opens cnt connections to the database and returns them
// wrapped in a Pool.
func NewPool(cnt int) (*Pool, error) {
	var pool = &Pool{
		conns: make(chan *Database, cnt),
	}

	for i := 0; i < cnt; i++ {
		var (
			err error
			db  *Database
		)

		if db, err = Open(common.DbPath); err != nil {
			pool.Close() // nolint: errcheck
			return nil, err
		}

		pool.conns <- db
	}

	return pool, nil
} // func NewPool(cnt int) (*Pool, error)

// Get returns a connection from the Pool, blocking until one is
// available if the Pool is currently empty.
func (pool *Pool) Get() *Database {
	return <-pool.conns
} // func (pool *Pool) Get() *Database

// Put returns a connection to the Pool.
func (pool *Pool) Put(db *Database) {
	pool.conns <- db
} // func (pool *Pool) Put(db *Database)

// Close closes all connections currently in the Pool.
// Connections that are checked out at the time are the borrower's
// problem.
func (pool *Pool) Close() error {
	var err error

	for {
		select {
		case db := <-pool.conns:
			if e := db.Close(); e != nil && err == nil {
				err = e
			}
		default:
			return err
		}
	}
} // func (pool *Pool) Close() error
