package commands

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gemchat/pkg/chat"
)

var testPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestNewContext(t *testing.T) {
	ctx := NewContext("  cat.png ", "/home/user")

	if ctx.Args != "cat.png" {
		t.Errorf("Expected trimmed args, got %q", ctx.Args)
	}
	if ctx.CurrentDir != "/home/user" {
		t.Errorf("Expected '/home/user', got %q", ctx.CurrentDir)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantArgs string
		wantOK   bool
	}{
		{"/image cat.png", "/image", "cat.png", true},
		{"  /NEW  ", "/new", "", true},
		{"/image   a b.png ", "/image", "a b.png", true},
		{"hello /image", "", "", false},
		{"/", "", "", false},
		{"/ image", "", "", false},
		{"/etc/hosts what is this?", "", "", false},
		{"//image cat.png", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		name, args, ok := Parse(tt.input)
		if name != tt.wantName || args != tt.wantArgs || ok != tt.wantOK {
			t.Errorf("Parse(%q) = (%q, %q, %v), expected (%q, %q, %v)",
				tt.input, name, args, ok, tt.wantName, tt.wantArgs, tt.wantOK)
		}
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"//image is a command", "/image is a command"},
		{"  //usr", "/usr"},
		{"/image", "/image"},
		{"hello // world", "hello // world"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Unescape(tt.input); got != tt.want {
			t.Errorf("Unescape(%q) = %q, expected %q", tt.input, got, tt.want)
		}
	}
}

func TestNewDispatcher(t *testing.T) {
	d := NewDispatcher()

	if d == nil {
		t.Fatal("NewDispatcher() returned nil")
	}

	// Check all commands are registered
	commands := []string{"/image", "/detach", "/new", "/history", "/help"}
	for _, cmd := range commands {
		if _, ok := d.GetHandler(cmd); !ok {
			t.Errorf("Expected handler for %s to be registered", cmd)
		}
	}
}

func TestDispatcher_Dispatch_UnknownCommand(t *testing.T) {
	d := NewDispatcher()

	result := d.Dispatch("/unknown", NewContext("", ""))

	if result == nil {
		t.Fatal("Expected result for unknown command")
	}
	if result.Title != "Error" {
		t.Errorf("Expected title 'Error', got %q", result.Title)
	}
	if result.Action != ResultActionNone {
		t.Errorf("Expected no action, got %q", result.Action)
	}
}

func TestDispatcher_Dispatch_Actions(t *testing.T) {
	d := NewDispatcher()

	tests := map[string]ResultAction{
		"/new":     ResultActionNewChat,
		"/history": ResultActionToggleHistory,
		"/detach":  ResultActionClearAttachment,
	}
	for cmd, want := range tests {
		result := d.Dispatch(cmd, NewContext("", ""))
		if result.Action != want {
			t.Errorf("%s: expected action %q, got %q", cmd, want, result.Action)
		}
	}
}

func TestImageHandler_Attach(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cat.png"), testPNG, 0600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	result := NewDispatcher().Dispatch("/image", NewContext("cat.png", dir))

	if result.Error != nil {
		t.Fatalf("Expected no error, got %v", result.Error)
	}
	if result.Action != ResultActionAttach {
		t.Fatalf("Expected attach action, got %q", result.Action)
	}
	if result.Attachment == nil || result.Attachment.MIMEType != "image/png" {
		t.Fatalf("Expected png attachment, got %+v", result.Attachment)
	}
	if !strings.Contains(result.Content, "cat.png") {
		t.Errorf("Expected file name in content, got %q", result.Content)
	}
}

func TestImageHandler_Errors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("plain text"), 0600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	d := NewDispatcher()

	result := d.Dispatch("/image", NewContext("", dir))
	if result.Error == nil || !strings.Contains(result.Error.Error(), "usage") {
		t.Errorf("Expected usage error, got %v", result.Error)
	}

	result = d.Dispatch("/image", NewContext("notes.txt", dir))
	if !errors.Is(result.Error, chat.ErrNotImage) {
		t.Errorf("Expected ErrNotImage, got %v", result.Error)
	}
	if result.Attachment != nil {
		t.Error("Expected no attachment on error")
	}

	result = d.Dispatch("/image", NewContext("missing.png", dir))
	if result.Error == nil {
		t.Error("Expected error for missing file")
	}
}

func TestHelpHandler_ListsCommands(t *testing.T) {
	result := NewDispatcher().Dispatch("/help", NewContext("", ""))

	for _, want := range []string{"/image", "/new", "/history", "ctrl+b"} {
		if !strings.Contains(result.Content, want) {
			t.Errorf("Expected help to mention %s, got %q", want, result.Content)
		}
	}
}

func TestExpandPath(t *testing.T) {
	if got := expandPath("a.png", "/tmp"); got != filepath.Join("/tmp", "a.png") {
		t.Errorf("Expected relative path joined to cwd, got %q", got)
	}
	if got := expandPath("/abs/a.png", "/tmp"); got != "/abs/a.png" {
		t.Errorf("Expected absolute path unchanged, got %q", got)
	}
	if got := expandPath(`"/abs/a b.png"`, ""); got != "/abs/a b.png" {
		t.Errorf("Expected quotes stripped, got %q", got)
	}
}
