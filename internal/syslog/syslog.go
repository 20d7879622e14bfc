// Package syslog formats log records as RFC 3164 or RFC 5424 syslog lines.
//
// A Formatter is built once per log stream with the fields that never change
// (facility, hostname, proc-id, msg-id) and is then called for every line.
// Format is pure: it touches no shared state and always returns a fresh
// byte slice ending in exactly one '\n'.
package syslog

import (
	"strconv"
	"time"
)

// Facility is a syslog facility per RFC 5424 section 6.2.1.
type Facility int

const (
	Kernel          Facility = 0
	UserLevel       Facility = 1
	MailSystem      Facility = 2
	SystemDaemon    Facility = 3
	SecurityMessage Facility = 4
	SyslogdInternal Facility = 5
	LinePrinter     Facility = 6
	NetworkNews     Facility = 7
	UUCP            Facility = 8
	ClockDaemon     Facility = 9
	FTPDaemon       Facility = 11
	NTP             Facility = 12
	LogAudit        Facility = 13
	LogAlert        Facility = 14
	Local0          Facility = 16
	Local1          Facility = 17
	Local2          Facility = 18
	Local3          Facility = 19
	Local4          Facility = 20
	Local5          Facility = 21
	Local6          Facility = 22
	Local7          Facility = 23
)

// Severity is a syslog severity per RFC 5424 section 6.2.1.
type Severity int

const (
	Emergency     Severity = 0
	Alert         Severity = 1
	Critical      Severity = 2
	Error         Severity = 3
	Warning       Severity = 4
	Notice        Severity = 5
	Informational Severity = 6
	Debug         Severity = 7
)

// Field length limits from RFC 5424 section 6.
const (
	maxHostnameLen = 255
	maxAppNameLen  = 48
	maxMsgIDLen    = 32
)

// Formatter renders syslog records in one of the two wire formats. The
// variant and the per-stream header fields are frozen at construction.
type Formatter struct {
	rfc5424   bool
	priOffset int
	hostname  string
	procID    string // "[pid]" or "" for RFC 3164, decimal or "-" for RFC 5424
	msgID     string // RFC 5424 only
}

// NewRFC3164 returns a Formatter producing BSD-style records. A pid of zero
// or less means unknown and omits the "[pid]" suffix.
func NewRFC3164(facility Facility, hostname string, pid int) *Formatter {
	procID := ""
	if pid > 0 {
		procID = "[" + strconv.Itoa(pid) + "]"
	}
	return &Formatter{
		priOffset: int(facility) * 8,
		hostname:  hostname,
		procID:    procID,
	}
}

// NewRFC5424 returns a Formatter producing RFC 5424 records. A pid of zero
// or less renders the proc-id as "-"; an empty msgID renders as "-".
func NewRFC5424(facility Facility, hostname string, pid int, msgID string) *Formatter {
	procID := "-"
	if pid > 0 {
		procID = strconv.Itoa(pid)
	}
	return &Formatter{
		rfc5424:   true,
		priOffset: int(facility) * 8,
		hostname:  truncate(hostname, maxHostnameLen),
		procID:    procID,
		msgID:     orNil(truncate(msgID, maxMsgIDLen)),
	}
}

// Format renders one record. Any '\n' or '\r' bytes inside msg are dropped
// and a single trailing '\n' is appended as the record delimiter. An empty
// appName renders as "-".
func (f *Formatter) Format(msg []byte, appName string, severity Severity, ts time.Time) []byte {
	pri := strconv.Itoa(f.priOffset + int(severity))

	var data []byte
	if f.rfc5424 {
		appName = orNil(truncate(appName, maxAppNameLen))
		timestamp := ts.UTC().Format("2006-01-02T15:04:05.000000Z")

		data = make([]byte, 0, len(pri)+len(timestamp)+len(f.hostname)+len(appName)+
			len(f.procID)+len(f.msgID)+len(msg)+12)
		data = append(data, '<')
		data = append(data, pri...)
		data = append(data, ">1 "...)
		data = append(data, timestamp...)
		data = append(data, ' ')
		data = append(data, f.hostname...)
		data = append(data, ' ')
		data = append(data, appName...)
		data = append(data, ' ')
		data = append(data, f.procID...)
		data = append(data, ' ')
		data = append(data, f.msgID...)
		data = append(data, " - "...)
	} else {
		appName = orNil(appName)
		timestamp := ts.Format("Jan _2 15:04:05")

		data = make([]byte, 0, len(pri)+len(timestamp)+len(f.hostname)+len(appName)+
			len(f.procID)+len(msg)+8)
		data = append(data, '<')
		data = append(data, pri...)
		data = append(data, '>')
		data = append(data, timestamp...)
		data = append(data, ' ')
		data = append(data, f.hostname...)
		data = append(data, ' ')
		data = append(data, appName...)
		data = append(data, f.procID...)
		data = append(data, ": "...)
	}

	for _, b := range msg {
		if b == '\n' || b == '\r' {
			continue
		}
		data = append(data, b)
	}
	return append(data, '\n')
}

// truncate cuts s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// orNil substitutes the syslog nil value for an empty field.
func orNil(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
