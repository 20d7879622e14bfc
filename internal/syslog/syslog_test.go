package syslog

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

var testTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRFC5424Format(t *testing.T) {
	tests := []struct {
		name     string
		facility Facility
		hostname string
		pid      int
		msgID    string
		appName  string
		severity Severity
		ts       time.Time
		msg      string
		want     string
	}{
		{
			name:     "error with app name and msgid",
			facility: SystemDaemon,
			hostname: "host1",
			msgID:    "cid123",
			appName:  "web",
			severity: Error,
			ts:       testTime,
			msg:      "hello world",
			want:     "<27>1 2024-01-01T00:00:00.000000Z host1 web - cid123 - hello world\n",
		},
		{
			name:     "informational with pid",
			facility: SystemDaemon,
			hostname: "host1",
			pid:      4242,
			msgID:    "cid123",
			appName:  "web",
			severity: Informational,
			ts:       testTime,
			msg:      "hello",
			want:     "<30>1 2024-01-01T00:00:00.000000Z host1 web 4242 cid123 - hello\n",
		},
		{
			name:     "absent app name and msgid render as nil",
			facility: UserLevel,
			hostname: "host1",
			severity: Notice,
			ts:       testTime,
			msg:      "m",
			want:     "<13>1 2024-01-01T00:00:00.000000Z host1 - - - - m\n",
		},
		{
			name:     "sub-second timestamp keeps microseconds",
			facility: SystemDaemon,
			hostname: "h",
			appName:  "a",
			msgID:    "m",
			severity: Informational,
			ts:       time.Date(2024, 6, 15, 12, 30, 45, 123456789, time.UTC),
			msg:      "x",
			want:     "<30>1 2024-06-15T12:30:45.123456Z h a - m - x\n",
		},
		{
			name:     "non-UTC timestamp is converted",
			facility: SystemDaemon,
			hostname: "h",
			appName:  "a",
			msgID:    "m",
			severity: Informational,
			ts:       time.Date(2024, 6, 15, 14, 30, 45, 0, time.FixedZone("CEST", 2*60*60)),
			msg:      "x",
			want:     "<30>1 2024-06-15T12:30:45.000000Z h a - m - x\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewRFC5424(tt.facility, tt.hostname, tt.pid, tt.msgID)
			got := f.Format([]byte(tt.msg), tt.appName, tt.severity, tt.ts)
			if string(got) != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRFC3164Format(t *testing.T) {
	tests := []struct {
		name     string
		hostname string
		pid      int
		appName  string
		severity Severity
		ts       time.Time
		msg      string
		want     string
	}{
		{
			name:     "with pid",
			hostname: "host1",
			pid:      123,
			appName:  "web",
			severity: Informational,
			ts:       time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC),
			msg:      "started",
			want:     "<30>Jan  1 00:00:05 host1 web[123]: started\n",
		},
		{
			name:     "without pid",
			hostname: "host1",
			appName:  "web",
			severity: Error,
			ts:       time.Date(2024, 12, 24, 18, 30, 0, 0, time.UTC),
			msg:      "boom",
			want:     "<27>Dec 24 18:30:00 host1 web: boom\n",
		},
		{
			name:     "absent app name renders as nil",
			hostname: "host1",
			pid:      7,
			severity: Warning,
			ts:       time.Date(2024, 12, 24, 18, 30, 0, 0, time.UTC),
			msg:      "m",
			want:     "<28>Dec 24 18:30:00 host1 -[7]: m\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewRFC3164(SystemDaemon, tt.hostname, tt.pid)
			got := f.Format([]byte(tt.msg), tt.appName, tt.severity, tt.ts)
			if string(got) != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPriorityEncoding(t *testing.T) {
	facilities := []Facility{
		Kernel, UserLevel, MailSystem, SystemDaemon, SecurityMessage,
		SyslogdInternal, LinePrinter, NetworkNews, UUCP, ClockDaemon,
		FTPDaemon, NTP, LogAudit, LogAlert,
		Local0, Local1, Local2, Local3, Local4, Local5, Local6, Local7,
	}
	severities := []Severity{
		Emergency, Alert, Critical, Error, Warning, Notice, Informational, Debug,
	}

	for _, fac := range facilities {
		for _, sev := range severities {
			f := NewRFC5424(fac, "h", 0, "")
			got := f.Format([]byte("m"), "", sev, testTime)

			end := bytes.IndexByte(got, '>')
			if got[0] != '<' || end < 0 {
				t.Fatalf("facility %d severity %d: malformed priority in %q", fac, sev, got)
			}
			wantPri := int(fac)*8 + int(sev)
			if pri := string(got[1:end]); pri != itoa(wantPri) {
				t.Errorf("facility %d severity %d: priority = %s, want %d", fac, sev, pri, wantPri)
			}
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

func TestNewlineStripping(t *testing.T) {
	for _, variant := range []string{"rfc3164", "rfc5424"} {
		t.Run(variant, func(t *testing.T) {
			var f *Formatter
			if variant == "rfc3164" {
				f = NewRFC3164(SystemDaemon, "h", 0)
			} else {
				f = NewRFC5424(SystemDaemon, "h", 0, "")
			}

			msg := []byte("line one\nline two\r\nline three\r")
			got := f.Format(msg, "app", Informational, testTime)

			if got[len(got)-1] != '\n' {
				t.Fatalf("record does not end in newline: %q", got)
			}
			body := got[:len(got)-1]
			if bytes.ContainsAny(body, "\n\r") {
				t.Errorf("record body contains newline or carriage return: %q", got)
			}
			if !bytes.Contains(body, []byte("line oneline twoline three")) {
				t.Errorf("message bytes not preserved in order: %q", got)
			}
		})
	}
}

func TestFieldTruncation(t *testing.T) {
	longHost := strings.Repeat("h", 300)
	longApp := strings.Repeat("a", 100)
	longMsgID := strings.Repeat("m", 100)

	f := NewRFC5424(SystemDaemon, longHost, 0, longMsgID)
	got := string(f.Format([]byte("x"), longApp, Informational, testTime))

	fields := strings.Split(got, " ")
	// fields: <PRI>1, timestamp, hostname, app-name, procid, msgid, "-", msg
	if len(fields) < 6 {
		t.Fatalf("unexpected field count in %q", got)
	}
	if len(fields[2]) != 255 {
		t.Errorf("hostname length = %d, want 255", len(fields[2]))
	}
	if len(fields[3]) != 48 {
		t.Errorf("app-name length = %d, want 48", len(fields[3]))
	}
	if len(fields[5]) != 32 {
		t.Errorf("msgid length = %d, want 32", len(fields[5]))
	}
}

func TestFormatIsPure(t *testing.T) {
	f := NewRFC5424(SystemDaemon, "h", 1, "id")
	a := f.Format([]byte("same"), "app", Informational, testTime)
	b := f.Format([]byte("same"), "app", Informational, testTime)

	if !bytes.Equal(a, b) {
		t.Fatalf("identical inputs produced %q and %q", a, b)
	}
	// Returned slices must not alias.
	a[0] = 'X'
	if b[0] == 'X' {
		t.Error("Format returns aliased buffers")
	}
}
