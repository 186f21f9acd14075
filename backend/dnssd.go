// /home/krylon/go/src/github.com/blicero/mnemosyne/backend/dnssd.go
// -*- mode: go; coding: utf-8; -*-
// Created on 19. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-05-10 21:44:26 krylon>

package backend

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/blicero/mnemosyne/common"
	"github.com/grandcat/zeroconf"
)

const (
	srvService = "_http._tcp"
	srvDomain  = "local."
)

var addrPat = regexp.MustCompile(`:(\d+)$`)

// initDNSSd announces the Daemon's web interface on the local network,
// so clients do not need to be told where to find us.
func (d *Daemon) initDNSSd() error {
	var (
		err   error
		match []string
		port  int64
		srv   *zeroconf.Server
	)

	if match = addrPat.FindStringSubmatch(d.web.Addr); match == nil {
		return fmt.Errorf("Cannot extract port from server address %q",
			d.web.Addr)
	}

	if port, err = strconv.ParseInt(match[1], 10, 16); err != nil {
		d.log.Printf("[ERROR] Cannot parse HTTP port from server address %q: %s\n",
			d.web.Addr,
			err.Error())
		return err
	}

	var txt = []string{"txtv=0"}

	var instanceName = fmt.Sprintf("%s@%s",
		common.AppName,
		d.hostname)

	if srv, err = zeroconf.Register(instanceName, srvService, srvDomain, int(port), txt, nil); err != nil {
		d.log.Printf("[ERROR] Cannot register service with DNS-SD: %s\n",
			err.Error())
		return err
	}

	d.dnssd = srv
	return nil
} // func (d *Daemon) initDNSSd() error

func (d *Daemon) finishDNSSd() {
	if d.dnssd != nil {
		d.dnssd.Shutdown()
		d.dnssd = nil
	}
} // func (d *Daemon) finishDNSSd()
