// /home/krylon/go/src/github.com/blicero/mnemosyne/scheduler/01_scheduler_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 11. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-05-08 21:04:49 krylon>

package scheduler

import (
	"testing"
	"time"

	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/database"
	"github.com/blicero/mnemosyne/objects"
)

var (
	pool      *database.Pool
	sched     *Scheduler
	delivered chan int64
)

// testDeliver mimics the Dispatcher: look the Reminder up, treat a
// missing row as cancelled, otherwise record the delivery and remove
// the row.
func testDeliver(id int64) {
	var (
		err error
		r   *objects.Reminder
		db  = pool.Get()
	)
	defer pool.Put(db)

	if r, err = db.ReminderGetByID(id); err != nil || r == nil {
		return
	}

	db.ReminderDelete(id) // nolint: errcheck
	delivered <- id
} // func testDeliver(id int64)

func TestSchedulerNew(t *testing.T) {
	var err error

	delivered = make(chan int64, 16)

	if pool, err = database.NewPool(2); err != nil {
		t.Fatalf("Cannot create database pool: %s",
			err.Error())
	} else if sched, err = New(pool, testDeliver); err != nil {
		sched = nil
		t.Fatalf("Cannot create Scheduler: %s",
			err.Error())
	}
} // func TestSchedulerNew(t *testing.T)

func TestArmAndFire(t *testing.T) {
	if sched == nil {
		t.SkipNow()
	}

	var (
		err error
		db  = pool.Get()
		r   = &objects.Reminder{
			Event:     "feed the cat",
			Timestamp: time.Now().Add(time.Millisecond * 50),
			ChatID:    23,
			UUID:      common.GetUUID(),
		}
	)

	err = db.ReminderAdd(r)
	pool.Put(db)

	if err != nil {
		t.Fatalf("Cannot add Reminder: %s", err.Error())
	}

	sched.Arm(r)

	if !sched.IsArmed(r.ID) {
		t.Fatalf("Reminder %d should be armed, but it is not", r.ID)
	}

	select {
	case id := <-delivered:
		if id != r.ID {
			t.Errorf("Unexpected Reminder was delivered: %d (expected %d)",
				id,
				r.ID)
		}
	case <-time.After(time.Second * 5):
		t.Fatalf("Reminder %d was not delivered in time", r.ID)
	}

	if sched.IsArmed(r.ID) {
		t.Errorf("Reminder %d still has a timer after firing", r.ID)
	}

	db = pool.Get()
	var ref *objects.Reminder
	ref, err = db.ReminderGetByID(r.ID)
	pool.Put(db)

	if err != nil {
		t.Fatalf("Cannot look up Reminder %d: %s",
			r.ID,
			err.Error())
	} else if ref != nil {
		t.Errorf("Reminder %d should be gone after delivery", r.ID)
	}
} // func TestArmAndFire(t *testing.T)

func TestCancel(t *testing.T) {
	if sched == nil {
		t.SkipNow()
	}

	var (
		err error
		db  = pool.Get()
		r   = &objects.Reminder{
			Event:     "water the plants",
			Timestamp: time.Now().Add(time.Hour),
			ChatID:    23,
			UUID:      common.GetUUID(),
		}
	)

	err = db.ReminderAdd(r)
	pool.Put(db)

	if err != nil {
		t.Fatalf("Cannot add Reminder: %s", err.Error())
	}

	sched.Arm(r)

	if err = sched.Cancel(r.ID); err != nil {
		t.Fatalf("Cannot cancel Reminder %d: %s",
			r.ID,
			err.Error())
	} else if sched.IsArmed(r.ID) {
		t.Errorf("Reminder %d still has a timer after cancellation", r.ID)
	}

	db = pool.Get()
	var ref *objects.Reminder
	ref, err = db.ReminderGetByID(r.ID)
	pool.Put(db)

	if err != nil {
		t.Fatalf("Cannot look up Reminder %d: %s",
			r.ID,
			err.Error())
	} else if ref != nil {
		t.Errorf("Reminder %d should be gone after cancellation", r.ID)
	}

	// Cancelling an ID that has neither timer nor row is a silent no-op.
	if err = sched.Cancel(r.ID); err != nil {
		t.Errorf("Cancelling Reminder %d twice should not be an error: %s",
			r.ID,
			err.Error())
	}
} // func TestCancel(t *testing.T)

// A Reminder that is armed and cancelled right away must not produce a
// notification.
func TestCancelNoDelivery(t *testing.T) {
	if sched == nil {
		t.SkipNow()
	}

	var (
		err error
		db  = pool.Get()
		r   = &objects.Reminder{
			Event:     "an event that never happens",
			Timestamp: time.Now().Add(time.Millisecond * 250),
			ChatID:    23,
			UUID:      common.GetUUID(),
		}
	)

	err = db.ReminderAdd(r)
	pool.Put(db)

	if err != nil {
		t.Fatalf("Cannot add Reminder: %s", err.Error())
	}

	sched.Arm(r)

	if err = sched.Cancel(r.ID); err != nil {
		t.Fatalf("Cannot cancel Reminder %d: %s",
			r.ID,
			err.Error())
	}

	select {
	case id := <-delivered:
		t.Errorf("Reminder %d was delivered despite being cancelled", id)
	case <-time.After(time.Second):
		// All is well.
	}
} // func TestCancelNoDelivery(t *testing.T)

// A Reminder that sat in the database across a restart - simulated by a
// fresh Scheduler - must be delivered exactly once after Reconcile, even
// if its fire time has already passed.
func TestReconcile(t *testing.T) {
	if sched == nil {
		t.SkipNow()
	}

	var (
		err       error
		restarted *Scheduler
		db        = pool.Get()
		r         = &objects.Reminder{
			Event:     "leftover from before the crash",
			Timestamp: time.Now().Add(-time.Hour),
			ChatID:    23,
			UUID:      common.GetUUID(),
		}
	)

	err = db.ReminderAdd(r)
	pool.Put(db)

	if err != nil {
		t.Fatalf("Cannot add Reminder: %s", err.Error())
	}

	if restarted, err = New(pool, testDeliver); err != nil {
		t.Fatalf("Cannot create second Scheduler: %s",
			err.Error())
	} else if err = restarted.Reconcile(); err != nil {
		t.Fatalf("Cannot reconcile: %s", err.Error())
	}

	defer restarted.Shutdown()

	select {
	case id := <-delivered:
		if id != r.ID {
			t.Errorf("Unexpected Reminder was delivered: %d (expected %d)",
				id,
				r.ID)
		}
	case <-time.After(time.Second * 5):
		t.Fatalf("Reminder %d was not delivered after reconciliation", r.ID)
	}

	select {
	case id := <-delivered:
		t.Errorf("Reminder %d was delivered a second time", id)
	case <-time.After(time.Millisecond * 500):
		// All is well.
	}

	db = pool.Get()
	var ref *objects.Reminder
	ref, err = db.ReminderGetByID(r.ID)
	pool.Put(db)

	if err != nil {
		t.Fatalf("Cannot look up Reminder %d: %s",
			r.ID,
			err.Error())
	} else if ref != nil {
		t.Errorf("Reminder %d should be gone after delivery", r.ID)
	}
} // func TestReconcile(t *testing.T)

func TestShutdown(t *testing.T) {
	if sched == nil {
		t.SkipNow()
	}

	var (
		err error
		db  = pool.Get()
		r   = &objects.Reminder{
			Event:     "after the end",
			Timestamp: time.Now().Add(time.Hour),
			ChatID:    23,
			UUID:      common.GetUUID(),
		}
	)

	err = db.ReminderAdd(r)
	pool.Put(db)

	if err != nil {
		t.Fatalf("Cannot add Reminder: %s", err.Error())
	}

	sched.Arm(r)
	sched.Shutdown()

	if cnt := sched.CntArmed(); cnt != 0 {
		t.Errorf("Scheduler still has %d armed timer(s) after shutdown", cnt)
	}

	// A Scheduler that has shut down does not arm new timers.
	sched.Arm(r)

	if sched.IsArmed(r.ID) {
		t.Errorf("Reminder %d was armed after shutdown", r.ID)
	}
} // func TestShutdown(t *testing.T)
