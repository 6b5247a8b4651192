package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/loom/internal/textdoc"
)

func TestStore_SetPageAndSnapshotClone(t *testing.T) {
	var s Store

	before := time.Now()
	s.SetView("http://example.test/", "Home", "view running")
	s.SetPage(textdoc.Page{
		Lines:   []string{"hello", "[ go ]"},
		Targets: []textdoc.Target{{Kind: textdoc.Button, Label: "go", Line: 1, End: 6}},
	})

	snap := s.Snapshot()
	if !snap.HasPage || snap.Renders != 1 {
		t.Fatalf("HasPage = %v Renders = %d, want true 1", snap.HasPage, snap.Renders)
	}
	if snap.URL != "http://example.test/" || snap.Title != "Home" || snap.WindowState != "view running" {
		t.Fatalf("view = %q %q %q", snap.URL, snap.Title, snap.WindowState)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Page.Lines[0] = "changed"
	snap.Page.Targets[0].Label = "changed"
	snap2 := s.Snapshot()
	if snap2.Page.Lines[0] != "hello" || snap2.Page.Targets[0].Label != "go" {
		t.Fatalf("Snapshot should clone the page; got %+v", snap2.Page)
	}
}

func TestStore_ErrorKeepsPage(t *testing.T) {
	var s Store
	s.SetPage(textdoc.Page{Lines: []string{"kept"}})

	origErr := errors.New("boom")
	s.SetError(origErr, true)

	snap := s.Snapshot()
	if len(snap.Page.Lines) != 1 || snap.Page.Lines[0] != "kept" {
		t.Fatalf("page changed on error: %+v", snap.Page)
	}
	if !snap.Crashed {
		t.Fatalf("Crashed = false, want true")
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}

	s.SetError(errors.New("later"), false)
	if !s.Snapshot().Crashed {
		t.Fatalf("a later error cleared the crash")
	}
}

func TestStore_MissedPongs(t *testing.T) {
	var s Store

	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false before any ping")
	}

	s.PingSent()
	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false with one ping outstanding")
	}

	s.PingSent()
	snap := s.Snapshot()
	if snap.MissedPongs != 2 || !snap.IsOffline() {
		t.Fatalf("MissedPongs = %d IsOffline = %v, want 2 true", snap.MissedPongs, snap.IsOffline())
	}

	s.PongReceived()
	if snap := s.Snapshot(); snap.MissedPongs != 0 || snap.IsOffline() {
		t.Fatalf("MissedPongs = %d after pong, want 0", snap.MissedPongs)
	}
}

func TestStore_Notice(t *testing.T) {
	var s Store
	s.SetNotice("view start timed out")
	if got := s.Snapshot().Notice; got != "view start timed out" {
		t.Fatalf("Notice = %q", got)
	}
}
