// /home/krylon/go/src/github.com/blicero/mnemosyne/backend/web.go
// -*- mode: go; coding: utf-8; -*-
// Created on 18. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-05-10 21:40:03 krylon>

package backend

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/blicero/mnemosyne/bot"
	"github.com/blicero/mnemosyne/database"
	"github.com/blicero/mnemosyne/objects"
	"github.com/gorilla/mux"
	"github.com/pquerna/ffjson/ffjson"
)

func (d *Daemon) initWebHandlers() error {
	d.router.HandleFunc("/command", d.handleCommand)
	d.router.HandleFunc("/reminder/pending", d.handleReminderGetPending)
	d.router.HandleFunc("/reminder/{id:(?:\\d+)}/cancel", d.handleReminderCancel)

	return nil
} // func (d *Daemon) initWebHandlers() error

func (d *Daemon) serveHTTP() {
	var err error

	defer d.log.Println("[INFO] Web server is shutting down")

	d.log.Printf("[INFO] Web interface is going online at %s\n", d.web.Addr)
	http.Handle("/", d.router)

	if err = d.web.ListenAndServe(); err != nil {
		if err != http.ErrServerClosed {
			d.log.Printf("[ERROR] ListenAndServe returned an error: %s\n",
				err.Error())
		} else {
			d.log.Println("[INFO] HTTP Server has shut down.")
		}
	}
} // func (d *Daemon) serveHTTP()

// handleCommand injects an inbound chat message into the Bot, as if the
// user had typed it into the conversation.
func (d *Daemon) handleCommand(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err                error
		chatStr, text, msg string
		chatID             int64
		feeder             bot.Feeder
		ok                 bool
		response           = objects.Response{ID: d.getID()}
	)

	if err = r.ParseForm(); err != nil {
		d.log.Printf("[ERROR] Cannot parse form data: %s\n",
			err.Error())
		response.Message = err.Error()
		goto SEND_RESPONSE
	}

	chatStr = r.FormValue("chat")
	text = r.FormValue("text")

	if chatID, err = strconv.ParseInt(chatStr, 10, 64); err != nil {
		msg = fmt.Sprintf("Cannot parse chat ID %q: %s",
			chatStr,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		response.Message = msg
		goto SEND_RESPONSE
	} else if feeder, ok = d.transport.(bot.Feeder); !ok {
		msg = fmt.Sprintf("Transport %T does not accept injected messages",
			d.transport)
		d.log.Printf("[ERROR] %s\n", msg)
		response.Message = msg
		goto SEND_RESPONSE
	}

	feeder.Feed(objects.Message{
		ChatID: chatID,
		Text:   text,
	})

	response.Message = "OK"
	response.Status = true

SEND_RESPONSE:
	d.sendResponseJSON(w, &response)
} // func (d *Daemon) handleCommand(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleReminderGetPending(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err       error
		db        *database.Database
		reminders []objects.Reminder
		buf       []byte
	)

	db = d.pool.Get()
	defer d.pool.Put(db)

	if reminders, err = db.ReminderGetAll(); err != nil {
		d.log.Printf("[ERROR] Cannot load Reminders: %s\n",
			err.Error())
	}

	if buf, err = ffjson.Marshal(reminders); err != nil {
		d.log.Printf("[ERROR] Cannot serialize Reminder list: %s\n",
			err.Error())

	}

	defer ffjson.Pool(buf)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(buf) // nolint: errcheck
} // func (d *Daemon) handleReminderGetPending(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleReminderCancel(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err        error
		vars       map[string]string
		idstr, msg string
		id         int64
		res        = objects.Response{ID: d.getID()}
	)

	vars = mux.Vars(r)

	idstr = vars["id"]

	if id, err = strconv.ParseInt(idstr, 10, 64); err != nil {
		msg = fmt.Sprintf("Cannot parse ID %q: %s",
			idstr,
			err.Error())
		d.log.Printf("[CANTHAPPEN] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	} else if err = d.bot.Scheduler().Cancel(id); err != nil {
		msg = fmt.Sprintf("Failed to cancel Reminder %d: %s",
			id,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	res.Message = fmt.Sprintf("Reminder %d was cancelled", id)
	res.Status = true

SEND_RESPONSE:
	d.sendResponseJSON(w, &res)
} // func (d *Daemon) handleReminderCancel(w http.ResponseWriter, r *http.Request)

//////////////////////////////////////////////////////////////////////////////////////////////////
/// Helpers //////////////////////////////////////////////////////////////////////////////////////
//////////////////////////////////////////////////////////////////////////////////////////////////

func (d *Daemon) sendResponseJSON(w http.ResponseWriter, res *objects.Response) {
	var (
		err error
		buf []byte
	)

	if buf, err = ffjson.Marshal(res); err != nil {
		d.log.Printf("[ERROR] Cannot serialize Response object %#v: %s\n",
			res,
			err.Error())
		return
	}

	defer ffjson.Pool(buf)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	w.Write(buf) // nolint: errcheck
} // func (d *Daemon) sendResponseJSON(w http.ResponseWriter, res *objects.Response)

func (d *Daemon) getID() int64 {
	d.idLock.Lock()
	d.idCnt++
	var id = d.idCnt
	d.idLock.Unlock()
	return id
} // func (d *Daemon) getID() int64
