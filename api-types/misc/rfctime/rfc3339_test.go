package rfctime_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/modelyard/modelyard-api-types/misc/rfctime"
	"gopkg.in/yaml.v3"
)

func TestRFC3339(t *testing.T) {
	t.Run("it should fail to parse when passed wrong format", func(t *testing.T) {
		s := "2025/10/22 12:34:56 +07:00"
		_, err := rfctime.ParseRFC3339(s)

		if err == nil {
			t.Error("no error unexpectedly")
		}
	})

	t.Run("it should parse when passed rfc3339 date-time format", func(t *testing.T) {
		s := "2025-10-22T12:34:56.987654321+07:00"
		testee, err := rfctime.ParseRFC3339(s)
		if err != nil {
			t.Fatal(err)
		}

		expected := time.Date(
			2025, 10, 22, 12, 34, 56, 987654321,
			time.FixedZone("+07:00", int((7*time.Hour).Seconds())),
		)

		if !testee.Time().Equal(expected) {
			t.Errorf("unmatch: as time: (actual, expected) = (%+v, %+v)", testee, expected)
		}

		if !testee.Equiv(rfctime.New(expected)) {
			t.Errorf("unmatch: as RFC3339: (actual, expected) = (%+v, %+v)", testee, expected)
		}
	})

	t.Run("it can be marshalled into json", func(t *testing.T) {
		s := "2025-10-22T12:34:56+07:00"
		testee, err := rfctime.ParseRFC3339(s)
		if err != nil {
			t.Fatal(err)
		}

		actual, err := json.Marshal(testee)
		if err != nil {
			t.Fatal(err)
		}
		expected := fmt.Sprintf(`"%s"`, s) // String in json

		if string(actual) != expected {
			t.Errorf("unmatch: json marshall: (actual, expected) = (%s, %s)", actual, expected)
		}
	})

	t.Run("it can be unmarshalled from json", func(t *testing.T) {
		s := "2025-10-22T12:34:56+07:00"
		jsonExpression := fmt.Sprintf(`"%s"`, s)

		var actual rfctime.RFC3339
		if err := json.Unmarshal([]byte(jsonExpression), &actual); err != nil {
			t.Fatal(err)
		}

		expected, err := rfctime.ParseRFC3339(s)
		if err != nil {
			t.Fatal(err)
		}

		if !actual.Time().Equal(expected.Time()) {
			t.Errorf("unmatch: json unmarshall: (actual, expected) = (%s, %s)", actual, expected)
		}
	})

	t.Run("it do nothing when json.Unmarshal is passed null", func(t *testing.T) {
		expected := rfctime.New(time.Date(
			2025, 10, 11, 12, 13, 14, 987654321,
			time.FixedZone("01:00", int((1*time.Hour).Seconds())),
		))
		actual := rfctime.New(time.Date(
			2025, 10, 11, 12, 13, 14, 987654321,
			time.FixedZone("01:00", int((1*time.Hour).Seconds())),
		))
		if err := json.Unmarshal([]byte("null"), &actual); err != nil {
			t.Fatal(err)
		}

		if !actual.Equal(expected) {
			t.Errorf("updated by unmarshalling null, unexpectedly: %s", actual)
		}
	})

	t.Run("it round-trips through yaml", func(t *testing.T) {
		testee := rfctime.New(time.Date(
			2025, 10, 22, 12, 34, 56, 0,
			time.FixedZone("+07:00", int((7*time.Hour).Seconds())),
		))

		b, err := yaml.Marshal(testee)
		if err != nil {
			t.Fatal(err)
		}

		var actual rfctime.RFC3339
		if err := yaml.Unmarshal(b, &actual); err != nil {
			t.Fatal(err)
		}

		if !actual.Equal(testee) {
			t.Errorf("unmatch: yaml round-trip: (actual, expected) = (%s, %s)", actual, testee)
		}
	})
}

func Test_ParseLooseRFC3339(t *testing.T) {
	type when struct {
		args []string
	}
	type then struct {
		expected []time.Time
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			for i, w := range when.args {
				testee, err := rfctime.ParseLooseRFC3339(w)
				if err != nil {
					t.Fatal(err)
				}
				expectedRFC3339 := rfctime.New(then.expected[i])

				if !testee.Time().Equal(then.expected[i]) {
					t.Errorf("unmatch: as time: (actual, expected) = (%+v, %+v)", testee, then.expected[i])
				}

				if !testee.Equiv(expectedRFC3339) {
					t.Errorf("unmatch: as RFC3339: (actual, expected) = (%+v, %+v)", testee, expectedRFC3339)
				}
			}
		}
	}

	t.Run("it should parse when passed second resolution", theory(
		when{
			args: []string{
				"2026-04-22T12:34:56+07:00",
				"2026-04-22 12:34:56+07:00",
				"2026-04-22T12:34:56",
				"2026-04-22 12:34:56",
			},
		},
		then{
			expected: []time.Time{
				time.Date(
					2026, 4, 22, 12, 34, 56, 0,
					time.FixedZone("+07:00", int((7*time.Hour).Seconds())),
				),
				time.Date(
					2026, 4, 22, 12, 34, 56, 0,
					time.FixedZone("+07:00", int((7*time.Hour).Seconds())),
				),
				time.Date(
					2026, 4, 22, 12, 34, 56, 0,
					time.Local,
				),
				time.Date(
					2026, 4, 22, 12, 34, 56, 0,
					time.Local,
				),
			},
		},
	))

	t.Run("it should parse when passed minute resolution", theory(
		when{
			args: []string{
				"2026-04-22T12:34+07:00",
				"2026-04-22 12:34+07:00",
				"2026-04-22T12:34",
				"2026-04-22 12:34",
			},
		},
		then{
			expected: []time.Time{
				time.Date(
					2026, 4, 22, 12, 34, 00, 0,
					time.FixedZone("+07:00", int((7*time.Hour).Seconds())),
				),
				time.Date(
					2026, 4, 22, 12, 34, 00, 0,
					time.FixedZone("+07:00", int((7*time.Hour).Seconds())),
				),
				time.Date(
					2026, 4, 22, 12, 34, 00, 0,
					time.Local,
				),
				time.Date(
					2026, 4, 22, 12, 34, 00, 0,
					time.Local,
				),
			},
		},
	))

	t.Run("it should parse when passed date only", theory(
		when{
			args: []string{
				"2026-04-22+07:00",
				"2026-04-22",
			},
		},
		then{
			expected: []time.Time{
				time.Date(
					2026, 4, 22, 00, 00, 00, 0,
					time.FixedZone("+07:00", int((7*time.Hour).Seconds())),
				),
				time.Date(
					2026, 4, 22, 0, 00, 00, 0,
					time.Local,
				),
			},
		},
	))
}
