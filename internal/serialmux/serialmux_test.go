package serialmux

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCommandAppendsNewline(t *testing.T) {
	port := NewTestablePort()
	mux := NewMux(port)

	if err := mux.Command("FREQ100"); err != nil {
		t.Fatalf("Command returned error: %v", err)
	}
	if got := port.WriteBuffer.String(); got != "FREQ100\n" {
		t.Errorf("wrote %q, want %q", got, "FREQ100\n")
	}
}

func TestCommandPreservesExistingNewline(t *testing.T) {
	port := NewTestablePort()
	mux := NewMux(port)

	if err := mux.Command("REST\n"); err != nil {
		t.Fatalf("Command returned error: %v", err)
	}
	if got := port.WriteBuffer.String(); got != "REST\n" {
		t.Errorf("wrote %q, want %q", got, "REST\n")
	}
}

func TestCommandWriteError(t *testing.T) {
	port := NewTestablePort()
	port.WriteError = errors.New("device unplugged")
	mux := NewMux(port)

	err := mux.Command("FREQ100")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "device unplugged") {
		t.Errorf("error = %v, want device unplugged", err)
	}
}

func TestQueryReadsOneLine(t *testing.T) {
	port := NewTestablePort()
	port.ReadBuffer.WriteString("42\r\n")
	mux := NewMux(port)

	reply, err := mux.Query("SPTS?")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if reply != "42" {
		t.Errorf("reply = %q, want %q", reply, "42")
	}
	if got := port.WriteBuffer.String(); got != "SPTS?\n" {
		t.Errorf("wrote %q, want %q", got, "SPTS?\n")
	}
}

func TestQueryEmptyReply(t *testing.T) {
	port := NewTestablePort()
	port.ReadBuffer.WriteString("\r\n")
	mux := NewMux(port)

	_, err := mux.Query("SPTS?")
	if err == nil {
		t.Fatal("expected error for empty reply, got nil")
	}
	if !strings.Contains(err.Error(), "SPTS?") {
		t.Errorf("error %v should name the offending command", err)
	}
}

func TestQueryNoReply(t *testing.T) {
	port := NewTestablePort()
	mux := NewMux(port)

	_, err := mux.Query("SPTS?")
	if err == nil {
		t.Fatal("expected error when no reply is available, got nil")
	}
}

func TestQuerySequenceWithResponder(t *testing.T) {
	port := NewTestablePort()
	port.Respond = func(command string) (string, bool) {
		switch command {
		case "SPTS?":
			return "3", true
		case "TRCA?1,0,3":
			return "1.0,2.0,3.0,", true
		}
		return "", false
	}
	mux := NewMux(port)

	if err := mux.Command("STRT"); err != nil {
		t.Fatalf("Command returned error: %v", err)
	}

	n, err := mux.Query("SPTS?")
	if err != nil {
		t.Fatalf("Query SPTS? returned error: %v", err)
	}
	if n != "3" {
		t.Errorf("SPTS? reply = %q, want %q", n, "3")
	}

	trace, err := mux.Query("TRCA?1,0,3")
	if err != nil {
		t.Fatalf("Query TRCA? returned error: %v", err)
	}
	if trace != "1.0,2.0,3.0," {
		t.Errorf("TRCA? reply = %q, want %q", trace, "1.0,2.0,3.0,")
	}

	want := []string{"STRT", "SPTS?", "TRCA?1,0,3"}
	if diff := cmp.Diff(want, port.Commands()); diff != "" {
		t.Errorf("command log mismatch (-want +got):\n%s", diff)
	}
}

func TestCloseClosesPort(t *testing.T) {
	port := NewTestablePort()
	mux := NewMux(port)

	if err := mux.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if !port.Closed {
		t.Error("underlying port not closed")
	}
}
