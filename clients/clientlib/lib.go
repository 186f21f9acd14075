// /home/krylon/go/src/github.com/blicero/mnemosyne/clients/clientlib/lib.go
// -*- mode: go; coding: utf-8; -*-
// Created on 21. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-05-11 19:21:37 krylon>

// Package clientlib provides the basic framework for building clients
// that talk to a running Daemon over its web interface.
package clientlib

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/blicero/krylib"
	"github.com/blicero/mnemosyne/common"
	"github.com/blicero/mnemosyne/logdomain"
	"github.com/blicero/mnemosyne/objects"
	"github.com/pquerna/ffjson/ffjson"
)

const (
	commandPath = "/command"
	pendingPath = "/reminder/pending"
)

// Client implements the fundamental communication with the Daemon.
type Client struct {
	Server *url.URL
	Client http.Client
	log    *log.Logger
}

// NewClient creates a new Client talking to the Daemon at the given
// address.
func NewClient(srv string) (*Client, error) {
	var (
		err error
		c   = &Client{
			Client: http.Client{
				Timeout: time.Second * 10,
			},
		}
	)

	if c.log, err = common.GetLogger(logdomain.Client); err != nil {
		fmt.Fprintf(
			os.Stderr,
			"Cannot create Logger: %s\n",
			err.Error())
		return nil, err
	} else if c.Server, err = url.Parse(srv); err != nil {
		c.log.Printf("[ERROR] Cannot parse URL %q: %s\n",
			srv,
			err.Error())
		return nil, err
	}

	c.Server.Scheme = "http"

	return c, nil
} // func NewClient(srv string) (*Client, error)

// GetLogger returns the Client's logger.
func (c *Client) GetLogger() *log.Logger {
	return c.log
} // func (c *Client) GetLogger() *log.Logger

// SubmitCommand injects a chat command into the Daemon, as if it had
// been typed into the conversation identified by chatID.
func (c *Client) SubmitCommand(chatID int64, text string) error {
	krylib.Trace()

	var (
		err    error
		msg    string
		rcvBuf bytes.Buffer
		hres   *http.Response
		ores   objects.Response
		values = url.Values{
			"chat": []string{strconv.FormatInt(chatID, 10)},
			"text": []string{text},
		}
	)

	var addr = *c.Server
	addr.Path = commandPath

	if hres, err = c.Client.PostForm(addr.String(), values); err != nil {
		c.log.Printf("[ERROR] Failed to POST command to %s: %s\n",
			addr.String(),
			err.Error())
		return err
	} else if hres.StatusCode != http.StatusOK {
		msg = fmt.Sprintf("Unexpected status from %s: %s",
			addr.String(),
			hres.Status)
		c.log.Printf("[ERROR] %s\n", msg)
		return errors.New(msg)
	} else if _, err = io.Copy(&rcvBuf, hres.Body); err != nil {
		c.log.Printf("[ERROR] Failed to read Response body from %s: %s\n",
			addr.String(),
			err.Error())
		return err
	} else if err = ffjson.Unmarshal(rcvBuf.Bytes(), &ores); err != nil {
		c.log.Printf("[ERROR] Cannot de-serialize Response from %s: %s\n",
			addr.String(),
			err.Error())
		return err
	} else if !ores.Status {
		err = fmt.Errorf("Request to %s failed: %s",
			addr.String(),
			ores.Message)
		c.log.Printf("[ERROR] %s\n",
			err.Error())
		return err
	}

	c.log.Printf("[DEBUG] Request to %s was successful: %s\n",
		addr.String(),
		ores.Message)

	return nil
} // func (c *Client) SubmitCommand(chatID int64, text string) error

// FetchPending asks the Daemon for the list of pending Reminders.
func (c *Client) FetchPending() ([]objects.Reminder, error) {
	krylib.Trace()

	var (
		err       error
		rcvBuf    bytes.Buffer
		hres      *http.Response
		reminders []objects.Reminder
	)

	var addr = *c.Server
	addr.Path = pendingPath

	if hres, err = c.Client.Get(addr.String()); err != nil {
		c.log.Printf("[ERROR] Failed to GET %s: %s\n",
			addr.String(),
			err.Error())
		return nil, err
	} else if hres.StatusCode != http.StatusOK {
		err = fmt.Errorf("Unexpected status from %s: %s",
			addr.String(),
			hres.Status)
		c.log.Printf("[ERROR] %s\n", err.Error())
		return nil, err
	} else if _, err = io.Copy(&rcvBuf, hres.Body); err != nil {
		c.log.Printf("[ERROR] Failed to read Response body from %s: %s\n",
			addr.String(),
			err.Error())
		return nil, err
	} else if err = ffjson.Unmarshal(rcvBuf.Bytes(), &reminders); err != nil {
		c.log.Printf("[ERROR] Cannot de-serialize Reminder list from %s: %s\n",
			addr.String(),
			err.Error())
		return nil, err
	}

	return reminders, nil
} // func (c *Client) FetchPending() ([]objects.Reminder, error)
