// /home/krylon/go/src/github.com/blicero/mnemosyne/common/common.go
// -*- mode: go; coding: utf-8; -*-
// Created on 03. 04. 2023 by Benjamin Walkenhorst
// (c) 2023 Benjamin Walkenhorst
// Time-stamp: <2023-05-02 19:38:44 krylon>

// Package common provides constants and settings used throughout
// the application.
package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blicero/mnemosyne/logdomain"
	"github.com/hashicorp/logutils"
	uuid "github.com/odeke-em/go-uuid"
)

// Debug, if true, causes the application to log additional messages.
// AppName is the name of the application, Version the version number.
const (
	Debug                    = true
	AppName                  = "Mnemosyne"
	Version                  = "0.3.1"
	TimestampFormat          = "2006-01-02 15:04:05"
	TimestampFormatMinute    = "2006-01-02 15:04"
	TimestampFormatSubSecond = "2006-01-02 15:04:05.0000 MST"
	TimestampFormatTime      = "15:04:05"
	TimestampFormatList      = "02.01.2006 15:04"
	DefaultPort              = 7207
)

// BuildStamp marks the time when the program was built.
var BuildStamp = time.Date(2023, 5, 2, 19, 35, 0, 0, time.Local)

// LogLevels are the valid log levels, in increasing order of severity.
var LogLevels = []logutils.LogLevel{
	"TRACE",
	"DEBUG",
	"INFO",
	"WARN",
	"ERROR",
	"CRITICAL",
	"CANTHAPPEN",
	"SILENT",
}

// PackageLevels defines minimum log levels per logging domain.
var PackageLevels = make(map[logdomain.ID]logutils.LogLevel, len(logdomain.AllDomains()))

func init() {
	var minLevel logutils.LogLevel = "INFO"

	if Debug {
		minLevel = "TRACE"
	}

	for _, id := range logdomain.AllDomains() {
		PackageLevels[id] = minLevel
	}
} // func init()

// Paths of the application's data files.
var (
	BaseDir = filepath.Join(os.Getenv("HOME"), fmt.Sprintf(".%s.d", strings.ToLower(AppName)))
	LogPath = filepath.Join(BaseDir, fmt.Sprintf("%s.log", strings.ToLower(AppName)))
	DbPath  = filepath.Join(BaseDir, fmt.Sprintf("%s.db", strings.ToLower(AppName)))
)

// SetBaseDir sets the BaseDir and related paths and attempts to create
// the folder if it does not exist already.
func SetBaseDir(path string) error {
	fmt.Printf("Setting BaseDir to %s\n", path)

	BaseDir = path
	LogPath = filepath.Join(BaseDir, fmt.Sprintf("%s.log", strings.ToLower(AppName)))
	DbPath = filepath.Join(BaseDir, fmt.Sprintf("%s.db", strings.ToLower(AppName)))

	if err := InitApp(); err != nil {
		fmt.Printf("Error initializing application environment: %s\n", err.Error())
		return err
	}

	return nil
} // func SetBaseDir(path string) error

// GetLogger tries to create a Logger for the given logging domain.
func GetLogger(dom logdomain.ID) (*log.Logger, error) {
	var (
		err  error
		name = fmt.Sprintf("%s.%s",
			AppName,
			dom)
	)

	if err = InitApp(); err != nil {
		return nil, fmt.Errorf("Error initializing application environment: %s",
			err.Error())
	}

	var logfile *os.File

	if logfile, err = os.OpenFile(LogPath, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0644); err != nil {
		return nil, fmt.Errorf("Error opening log file %s: %s",
			LogPath,
			err.Error())
	}

	var writer = io.MultiWriter(os.Stdout, logfile)

	var filter = &logutils.LevelFilter{
		Levels:   LogLevels,
		MinLevel: PackageLevels[dom],
		Writer:   writer,
	}

	var logger = log.New(filter, name+" ", log.Ldate|log.Ltime|log.Lshortfile)

	return logger, nil
} // func GetLogger(dom logdomain.ID) (*log.Logger, error)

// InitApp performs some basic preparations for the application to run.
// Currently, this means creating the BaseDir if it does not exist.
func InitApp() error {
	var err error

	if err = os.Mkdir(BaseDir, 0755); err != nil {
		if !os.IsExist(err) {
			return fmt.Errorf("Error creating BaseDir %s: %s",
				BaseDir,
				err.Error())
		}
	}

	return nil
} // func InitApp() error

// GetUUID returns a fresh UUID.
func GetUUID() string {
	return uuid.New()
} // func GetUUID() string
