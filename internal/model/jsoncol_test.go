// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"
)

func TestStringListScan(t *testing.T) {
	var l StringList
	if err := l.Scan(`["a","b"]`); err != nil {
		t.Fatalf("Scan(string): %v", err)
	}
	if len(l) != 2 || l[0] != "a" || l[1] != "b" {
		t.Errorf("Scan = %v, want [a b]", l)
	}

	if err := l.Scan([]byte(`["c"]`)); err != nil {
		t.Fatalf("Scan([]byte): %v", err)
	}
	if len(l) != 1 || l[0] != "c" {
		t.Errorf("Scan = %v, want [c]", l)
	}

	if err := l.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if l != nil {
		t.Errorf("Scan(nil) = %v, want nil", l)
	}

	if err := l.Scan(42); err == nil {
		t.Error("Scan(int) error = nil, want unsupported type error")
	}
}

func TestStringListValue(t *testing.T) {
	v, err := StringList(nil).Value()
	if err != nil {
		t.Fatalf("Value(nil): %v", err)
	}
	if v != "[]" {
		t.Errorf("Value(nil) = %v, want []", v)
	}

	v, err = StringList{"x"}.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != `["x"]` {
		t.Errorf("Value = %v, want [\"x\"]", v)
	}
}

func TestDocumentScanValue(t *testing.T) {
	var d Document
	if err := d.Scan(`{"camera":"GFX 100","iso":800}`); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if d.GetString("camera") != "GFX 100" {
		t.Errorf("GetString(camera) = %q", d.GetString("camera"))
	}
	if d.GetString("iso") != "" {
		t.Errorf("GetString on a number = %q, want empty", d.GetString("iso"))
	}
	if d.GetString("missing") != "" {
		t.Errorf("GetString(missing) = %q, want empty", d.GetString("missing"))
	}

	v, err := Document(nil).Value()
	if err != nil {
		t.Fatalf("Value(nil): %v", err)
	}
	if v != "{}" {
		t.Errorf("Value(nil) = %v, want {}", v)
	}
}
