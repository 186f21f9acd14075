// /home/krylon/go/src/github.com/blicero/mnemosyne/database/database.go
// -*- mode: go; coding: utf-8; -*-
// Created on 06. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-05-07 18:11:29 krylon>

// Package database provides the persistence layer of the application.
// It is a ledger of pending Reminders, nothing more - it does not
// schedule anything itself, the Scheduler reconciles its timers
// against what is stored here.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/blicero/krylib"
	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/database/query"
	"github.com/blicero/mnemosyne/logdomain"
	"github.com/blicero/mnemosyne/objects"
	_ "github.com/mattn/go-sqlite3" // Import the database driver
)

// ErrTxInProgress indicates that an attempt was made to start a
// transaction while another transaction is already in progress.
var ErrTxInProgress = errors.New("A Transaction is already in progress")

// ErrNoTxInProgress indicates that an attempt was made to finish a
// transaction when none was active.
var ErrNoTxInProgress = errors.New("There is no transaction in progress")

// If a query returns with this error, we just repeat it.
var retryPat = regexp.MustCompile("(?i)database is (?:locked|busy)")

// worthARetry returns true if an error from the database
// is matched by the retry pattern.
func worthARetry(e error) bool {
	return retryPat.MatchString(e.Error())
} // func worthARetry(e error) bool

// retryDelay is the amount of time we wait before we repeat a database
// operation that failed due to a lock conflict.
const retryDelay = 25 * time.Millisecond

func waitForRetry() {
	time.Sleep(retryDelay)
} // func waitForRetry()

var (
	openLock sync.Mutex
	idCnt    int64
)

// Database wraps a connection to the underlying data store, along
// with a cache of prepared statements.
type Database struct {
	id      int64
	db      *sql.DB
	tx      *sql.Tx
	log     *log.Logger
	path    string
	queries map[query.ID]*sql.Stmt
}

// Open opens a Database. If the database file does not exist, it is
// created and the schema is initialized.
func Open(path string) (*Database, error) {
	var (
		err      error
		dbExists bool
		db       = &Database{
			path:    path,
			queries: make(map[query.ID]*sql.Stmt, len(dbQueries)),
		}
	)

	openLock.Lock()
	defer openLock.Unlock()
	idCnt++
	db.id = idCnt

	if db.log, err = common.GetLogger(logdomain.Database); err != nil {
		return nil, err
	}

	var connstring = fmt.Sprintf("%s?_locking=NORMAL&_journal=WAL&_fk=1&recursive_triggers=0",
		path)

	if dbExists, err = krylib.Fexists(path); err != nil {
		db.log.Printf("[ERROR] Failed to check if %s exists: %s\n",
			path,
			err.Error())
		return nil, err
	} else if db.db, err = sql.Open("sqlite3", connstring); err != nil {
		db.log.Printf("[ERROR] Failed to open %s: %s\n",
			path,
			err.Error())
		return nil, err
	}

	if !dbExists {
		if err = db.initialize(); err != nil {
			var e2 error
			if e2 = db.db.Close(); e2 != nil {
				db.log.Printf("[CRITICAL] Failed to close database: %s\n",
					e2.Error())
				return nil, e2
			}
			db.db = nil
			return nil, err
		}
		db.log.Printf("[INFO] Database at %s has been initialized\n",
			path)
	}

	return db, nil
} // func Open(path string) (*Database, error)

func (db *Database) initialize() error {
	var err error
	var tx *sql.Tx

	if tx, err = db.db.Begin(); err != nil {
		db.log.Printf("[ERROR] Cannot begin transaction: %s\n",
			err.Error())
		return err
	}

	for _, q := range initQueries {
		db.log.Printf("[TRACE] Execute init query:\n%s\n",
			q)
		if _, err = tx.Exec(q); err != nil {
			db.log.Printf("[ERROR] Cannot execute init query: %s\n%s\n",
				err.Error(),
				q)
			if rbErr := tx.Rollback(); rbErr != nil {
				db.log.Printf("[CANTHAPPEN] Cannot rollback transaction: %s\n",
					rbErr.Error())
				return rbErr
			}
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		db.log.Printf("[CANTHAPPEN] Failed to commit init transaction: %s\n",
			err.Error())
		return err
	}

	return nil
} // func (db *Database) initialize() error

// Close closes the database.
// If there is a pending transaction, it is rolled back.
func (db *Database) Close() error {
	// I wonder if would make more snese to panic() if something goes
	// wrong, because it's not like the application could just ignore
	// it and go on.
	var err error

	if db.tx != nil {
		if err = db.tx.Rollback(); err != nil {
			db.log.Printf("[CRITICAL] Cannot roll back pending transaction: %s\n",
				err.Error())
			return err
		}
		db.tx = nil
	}

	for key, stmt := range db.queries {
		if err = stmt.Close(); err != nil {
			db.log.Printf("[CRITICAL] Cannot close statement handle %s: %s\n",
				key,
				err.Error())
			return err
		}
		delete(db.queries, key)
	}

	if err = db.db.Close(); err != nil {
		db.log.Printf("[CRITICAL] Cannot close database: %s\n",
			err.Error())
	}

	db.db = nil
	return nil
} // func (db *Database) Close() error

func (db *Database) getQuery(id query.ID) (*sql.Stmt, error) {
	var (
		stmt *sql.Stmt
		ok   bool
		err  error
	)

	if stmt, ok = db.queries[id]; ok {
		return stmt, nil
	}

PREPARE_QUERY:
	if stmt, err = db.db.Prepare(dbQueries[id]); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto PREPARE_QUERY
		}

		db.log.Printf("[ERROR] Cannot parse query %s: %s\n%s\n",
			id,
			err.Error(),
			dbQueries[id])
		return nil, err
	}

	db.queries[id] = stmt

	return stmt, nil
} // func (db *Database) getQuery(query.ID) (*sql.Stmt, error)

// Begin begins an explicit database transaction.
// Returns ErrTxInProgress if a transaction is already pending.
func (db *Database) Begin() error {
	var err error

	db.log.Printf("[DEBUG] Database#%d Begin Transaction\n",
		db.id)

	if db.tx != nil {
		return ErrTxInProgress
	}

BEGIN_TX:
	for db.tx == nil {
		if db.tx, err = db.db.Begin(); err != nil {
			if worthARetry(err) {
				waitForRetry()
				continue BEGIN_TX
			}

			db.log.Printf("[ERROR] Failed to start transaction: %s\n",
				err.Error())
			return err
		}
	}

	return nil
} // func (db *Database) Begin() error

// Commit ends the active transaction, making any changes performed during
// the transaction permanent and visible to other connections.
func (db *Database) Commit() error {
	var err error

	db.log.Printf("[DEBUG] Database#%d Commit Transaction\n",
		db.id)

	if db.tx == nil {
		return ErrNoTxInProgress
	}

COMMIT_TX:
	if err = db.tx.Commit(); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto COMMIT_TX
		}

		db.log.Printf("[ERROR] Failed to commit transaction: %s\n",
			err.Error())
		return err
	}

	db.tx = nil
	return nil
} // func (db *Database) Commit() error

// Rollback terminates a pending transaction, undoing any changes to the
// database made during that transaction.
func (db *Database) Rollback() error {
	var err error

	db.log.Printf("[DEBUG] Database#%d Roll back Transaction\n",
		db.id)

	if db.tx == nil {
		return ErrNoTxInProgress
	}

	if err = db.tx.Rollback(); err != nil {
		db.log.Printf("[ERROR] Failed to roll back transaction: %s\n",
			err.Error())
		return err
	}

	db.tx = nil
	return nil
} // func (db *Database) Rollback() error

// ReminderAdd adds a Reminder to the store. The row is written
// atomically, and the store-assigned ID is filled in on success.
func (db *Database) ReminderAdd(r *objects.Reminder) error {
	const qid query.ID = query.ReminderAdd
	var (
		err    error
		msg    string
		stmt   *sql.Stmt
		tx     *sql.Tx
		status bool
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return err
	} else if db.tx != nil {
		tx = db.tx
	} else {
	BEGIN_AD_HOC:
		if tx, err = db.db.Begin(); err != nil {
			if worthARetry(err) {
				waitForRetry()
				goto BEGIN_AD_HOC
			}

			msg = fmt.Sprintf("Error starting transaction: %s",
				err.Error())
			db.log.Printf("[ERROR] %s\n", msg)
			return errors.New(msg)
		}

		defer func() {
			var err2 error
			if status {
				if err2 = tx.Commit(); err2 != nil {
					db.log.Printf("[ERROR] Failed to commit ad-hoc transaction: %s\n",
						err2.Error())
				}
			} else if err2 = tx.Rollback(); err2 != nil {
				db.log.Printf("[ERROR] Rollback of ad-hoc transaction failed: %s\n",
					err2.Error())
			}
		}()
	}

	stmt = tx.Stmt(stmt)
	var (
		res sql.Result
		now = time.Now()
	)

EXEC_QUERY:
	if res, err = stmt.Exec(r.Event, r.Timestamp.UnixMilli(), r.ChatID, r.UUID, now.UnixMilli()); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		msg = fmt.Sprintf("Cannot add Reminder %q to database: %s",
			r.Event,
			err.Error())
		db.log.Printf("[ERROR] %s\n", msg)
		return errors.New(msg)
	}

	var id int64

	if id, err = res.LastInsertId(); err != nil {
		msg = fmt.Sprintf("Cannot get ID of new Reminder %q: %s",
			r.Event,
			err.Error())
		db.log.Printf("[ERROR] %s\n", msg)
		return errors.New(msg)
	}

	status = true
	r.ID = id
	r.Changed = now
	return nil
} // func (db *Database) ReminderAdd(r *objects.Reminder) error

// ReminderDelete removes the Reminder with the given ID from the store.
// Deleting an ID that does not exist is a no-op, not an error - the
// Scheduler's fire path and a user cancellation may race to delete the
// same row, and both must converge on "gone".
func (db *Database) ReminderDelete(id int64) error {
	const qid query.ID = query.ReminderDelete
	var (
		err    error
		msg    string
		stmt   *sql.Stmt
		tx     *sql.Tx
		status bool
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return err
	} else if db.tx != nil {
		tx = db.tx
	} else {
	BEGIN_AD_HOC:
		if tx, err = db.db.Begin(); err != nil {
			if worthARetry(err) {
				waitForRetry()
				goto BEGIN_AD_HOC
			}

			msg = fmt.Sprintf("Error starting transaction: %s",
				err.Error())
			db.log.Printf("[ERROR] %s\n", msg)
			return errors.New(msg)
		}

		defer func() {
			var err2 error
			if status {
				if err2 = tx.Commit(); err2 != nil {
					db.log.Printf("[ERROR] Failed to commit ad-hoc transaction: %s\n",
						err2.Error())
				}
			} else if err2 = tx.Rollback(); err2 != nil {
				db.log.Printf("[ERROR] Rollback of ad-hoc transaction failed: %s\n",
					err2.Error())
			}
		}()
	}

	stmt = tx.Stmt(stmt)

EXEC_QUERY:
	if _, err = stmt.Exec(id); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		msg = fmt.Sprintf("Cannot delete Reminder %d: %s",
			id,
			err.Error())
		db.log.Printf("[ERROR] %s\n", msg)
		return errors.New(msg)
	}

	status = true
	return nil
} // func (db *Database) ReminderDelete(id int64) error

// ReminderGetByID looks up a Reminder by its ID.
// If no such Reminder exists, it returns nil, but no error.
func (db *Database) ReminderGetByID(id int64) (*objects.Reminder, error) {
	const qid query.ID = query.ReminderGetByID
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	var rows *sql.Rows

EXEC_QUERY:
	if rows, err = stmt.Query(id); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot look up Reminder %d: %s\n",
			id,
			err.Error())
		return nil, err
	}

	defer rows.Close() // nolint: errcheck,gosec

	if rows.Next() {
		var (
			due, changed int64
			r            = &objects.Reminder{ID: id}
		)

		if err = rows.Scan(&r.Event, &due, &r.ChatID, &r.UUID, &changed); err != nil {
			db.log.Printf("[ERROR] Cannot scan row: %s\n",
				err.Error())
			return nil, err
		}

		r.Timestamp = time.UnixMilli(due)
		r.Changed = time.UnixMilli(changed)
		return r, nil
	}

	return nil, nil
} // func (db *Database) ReminderGetByID(id int64) (*objects.Reminder, error)

// ReminderGetByEvent looks up a Reminder by its exact event text.
// If several Reminders share the event text, the one with the lowest ID,
// i.e. the oldest one, is returned. If no match exists, it returns nil.
func (db *Database) ReminderGetByEvent(event string) (*objects.Reminder, error) {
	const qid query.ID = query.ReminderGetByEvent
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	var rows *sql.Rows

EXEC_QUERY:
	if rows, err = stmt.Query(event); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot look up Reminder %q: %s\n",
			event,
			err.Error())
		return nil, err
	}

	defer rows.Close() // nolint: errcheck,gosec

	if rows.Next() {
		var (
			due, changed int64
			r            = &objects.Reminder{Event: event}
		)

		if err = rows.Scan(&r.ID, &due, &r.ChatID, &r.UUID, &changed); err != nil {
			db.log.Printf("[ERROR] Cannot scan row: %s\n",
				err.Error())
			return nil, err
		}

		r.Timestamp = time.UnixMilli(due)
		r.Changed = time.UnixMilli(changed)
		return r, nil
	}

	return nil, nil
} // func (db *Database) ReminderGetByEvent(event string) (*objects.Reminder, error)

// ReminderGetAll fetches all Reminders from the store, in insertion order.
func (db *Database) ReminderGetAll() ([]objects.Reminder, error) {
	const qid query.ID = query.ReminderGetAll
	var (
		err  error
		stmt *sql.Stmt
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	} else if db.tx != nil {
		stmt = db.tx.Stmt(stmt)
	}

	var rows *sql.Rows

EXEC_QUERY:
	if rows, err = stmt.Query(); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot query all Reminders: %s\n",
			err.Error())
		return nil, err
	}

	defer rows.Close() // nolint: errcheck,gosec

	var reminders = make([]objects.Reminder, 0, 8)

	for rows.Next() {
		var (
			due, changed int64
			r            objects.Reminder
		)

		if err = rows.Scan(&r.ID, &r.Event, &due, &r.ChatID, &r.UUID, &changed); err != nil {
			db.log.Printf("[ERROR] Cannot scan row: %s\n",
				err.Error())
			return nil, err
		}

		r.Timestamp = time.UnixMilli(due)
		r.Changed = time.UnixMilli(changed)
		reminders = append(reminders, r)
	}

	return reminders, nil
} // func (db *Database) ReminderGetAll() ([]objects.Reminder, error)
