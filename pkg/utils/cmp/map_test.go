package cmp_test

import (
	"testing"

	"github.com/modelyard/modelyard/pkg/utils/cmp"
)

func TestMapOp(t *testing.T) {
	t.Run("mapeq detect two maps are equal", func(t *testing.T) {
		a := map[string]string{
			"key1": "foo",
			"key2": "bar",
		}
		b := map[string]string{
			"key1": "foo",
			"key2": "bar",
		}
		if !cmp.MapEq(a, b) {
			t.Error("a != b, unexpectedly.")
		}
		if !cmp.MapEq(b, a) {
			t.Error("b != a, unexpectedly.")
		}
	})
	t.Run("mapeqwith detect two maps are equal", func(t *testing.T) {
		a := map[string]string{
			"key1": "foo...",
			"key2": "bar@@@",
		}
		b := map[string]string{
			"key1": "foo!!!",
			"key2": "bar???",
		}
		if !cmp.MapEqWith(a, b, func(a string, b string) bool { return a[:3] == b[:3] }) {
			t.Error("a != b, unexpectedly.")
		}
		if !cmp.MapEqWith(b, a, func(b string, a string) bool { return b[:3] == a[:3] }) {
			t.Error("b != a, unexpectedly.")
		}
	})
	t.Run("mapeq detect two maps have same keys are different", func(t *testing.T) {
		a := map[string]string{
			"key1": "foo",
			"key2": "bar",
			"key3": "baz",
		}
		b := map[string]string{
			"key1": "foo",
			"key2": "bar",
			"key3": "quux",
		}
		if cmp.MapEq(a, b) {
			t.Error("a == b, unexpectedly.")
		}
		if cmp.MapEq(b, a) {
			t.Error("b == a, unexpectedly.")
		}
	})
	t.Run("mapeqwith detect two maps have same keys are different", func(t *testing.T) {
		a := map[string]string{
			"key1": "foo",
			"key2": "bar",
			"key3": "baz",
		}
		b := map[string]string{
			"key1": "foo",
			"key2": "bar",
			"key3": "bam",
		}
		if cmp.MapEqWith(a, b, func(a, b string) bool { return a[:3] == b[:3] }) {
			t.Error("a == b, unexpectedly.")
		}
		if cmp.MapEqWith(b, a, func(b, a string) bool { return b[:3] == a[:3] }) {
			t.Error("b == a, unexpectedly.")
		}
	})
	t.Run("mapeq detect two maps have different keys are different", func(t *testing.T) {
		a := map[string]string{
			"key1": "foo",
			"key2": "bar",
			"key3": "baz",
		}
		b := map[string]string{
			"key1": "foo",
			"key2": "bar",
			"key4": "baz",
		}
		if cmp.MapEq(a, b) {
			t.Error("a == b, unexpectedly.")
		}
		if cmp.MapEq(b, a) {
			t.Error("b == a, unexpectedly.")
		}
	})
	t.Run("mapeqwith detect two maps have different keys are different", func(t *testing.T) {
		a := map[string]string{
			"key1": "foo",
			"key2": "bar",
			"key3": "baz",
		}
		b := map[string]string{
			"key1": "foo",
			"key2": "bar",
			"key4": "baz",
		}
		if cmp.MapEqWith(a, b, func(a, b string) bool { return a[:3] == b[:3] }) {
			t.Error("a == b, unexpectedly.")
		}
		if cmp.MapEqWith(b, a, func(b, a string) bool { return b[:3] == a[:3] }) {
			t.Error("b == a, unexpectedly.")
		}
	})
	t.Run("mapeq detect two maps have different key size are different", func(t *testing.T) {
		a := map[string]string{
			"key1": "foo",
			"key2": "bar",
			"key3": "baz",
		}
		b := map[string]string{
			"key1": "foo",
			"key2": "bar",
		}
		if cmp.MapEq(a, b) {
			t.Error("a == b, unexpectedly.")
		}
		if cmp.MapEq(b, a) {
			t.Error("b == a, unexpectedly.")
		}
	})
	t.Run("mapeqwith detect two maps have different key size are different", func(t *testing.T) {
		a := map[string]string{
			"key1": "foo",
			"key2": "bar",
			"key3": "baz",
		}
		b := map[string]string{
			"key1": "foo",
			"key2": "bar",
		}
		if cmp.MapEqWith(a, b, func(a, b string) bool { return a[:3] == b[:3] }) {
			t.Error("a == b, unexpectedly.")
		}
		if cmp.MapEqWith(b, a, func(b, a string) bool { return b[:3] == a[:3] }) {
			t.Error("b == a, unexpectedly.")
		}
	})
}
