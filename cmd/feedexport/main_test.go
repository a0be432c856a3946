package main

import (
	"errors"
	"reflect"
	"testing"

	"feed-export/internal/terminal"
	"feed-export/internal/types"

	"github.com/spf13/cobra"
)

func resetSelectionFlags() {
	allFlag, recentFlag, fromFlag, toFlag = false, 0, "", ""
}

func TestSelectionFromFlags(t *testing.T) {
	defer resetSelectionFlags()

	resetSelectionFlags()
	if _, ok, err := selectionFromFlags(); ok || err != nil {
		t.Errorf("Expected no selection without flags, got ok=%v err=%v", ok, err)
	}

	recentFlag = 7
	sel, ok, err := selectionFromFlags()
	if err != nil || !ok || sel != (types.Selection{Kind: types.SelectRecent, Count: 7}) {
		t.Errorf("Expected recent 7, got %+v ok=%v err=%v", sel, ok, err)
	}

	resetSelectionFlags()
	fromFlag, toFlag = "2024-01-01", "2024-06-30"
	sel, _, _ = selectionFromFlags()
	if sel.Kind != types.SelectRange || sel.From != "2024-01-01" || sel.To != "2024-06-30" {
		t.Errorf("Expected range selection, got %+v", sel)
	}

	resetSelectionFlags()
	allFlag = true
	sel, _, _ = selectionFromFlags()
	if sel.Kind != types.SelectAll {
		t.Errorf("Expected all, got %+v", sel)
	}

	resetSelectionFlags()
	recentFlag = -1
	if _, _, err := selectionFromFlags(); !errors.Is(err, terminal.ErrInvalidNumber) {
		t.Errorf("Expected ErrInvalidNumber, got %v", err)
	}
}

func TestSplitArgs(t *testing.T) {
	cmd := &cobra.Command{}
	if err := cmd.Flags().Parse([]string{"someone", "--", "--cookies", "c.txt"}); err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	positional, extra := splitArgs(cmd, cmd.Flags().Args())
	if !reflect.DeepEqual(positional, []string{"someone"}) {
		t.Errorf("Expected [someone], got %v", positional)
	}
	if !reflect.DeepEqual(extra, []string{"--cookies", "c.txt"}) {
		t.Errorf("Expected passthrough args, got %v", extra)
	}

	cmd = &cobra.Command{}
	if err := cmd.Flags().Parse([]string{"someone"}); err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	positional, extra = splitArgs(cmd, cmd.Flags().Args())
	if len(positional) != 1 || extra != nil {
		t.Errorf("Expected no passthrough args, got %v / %v", positional, extra)
	}
}
