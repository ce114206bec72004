package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/enforcement"
)

// 出力形式
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validFormat(format string) bool {
	switch format {
	case formatText, formatJSON, formatYAML:
		return true
	}
	return false
}

// render は結果を指定形式で書き出す。
func render(w io.Writer, format string, res *enforcement.Result) error {
	view := res.View()
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return err
		}
		return enc.Close()
	default:
		return renderText(w, view)
	}
}

func renderText(w io.Writer, v enforcement.View) error {
	if _, err := fmt.Fprintf(w, "%s %s: %s (state %s)\n", v.Operation, v.Subject, v.Outcome, v.State); err != nil {
		return err
	}
	lines := []struct {
		show  bool
		label string
		value string
	}{
		{v.ProfileChanged, "profile", fmt.Sprintf("%q -> %q", v.PreviousProfile, v.Profile)},
		{v.SessionTerminated, "session", v.SessionID + " terminated"},
		{v.PoolChanged, "pool", fmt.Sprintf("%q -> %q", v.PreviousPool, v.Pool)},
		{v.Error != "", "error", v.Error},
		{v.Retryable, "hint", "retry the same command"},
	}
	for _, l := range lines {
		if !l.show {
			continue
		}
		if _, err := fmt.Fprintf(w, "  %-8s %s\n", l.label+":", l.value); err != nil {
			return err
		}
	}
	return nil
}
