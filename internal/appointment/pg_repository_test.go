package appointment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDentistFilterIsNeverNull(t *testing.T) {
	m := pgtype.NewMap()
	one := uuid.New()

	cases := map[string]struct {
		ids  []uuid.UUID
		want int
	}{
		"every dentist": {ids: nil, want: 0},
		"empty":         {ids: []uuid.UUID{}, want: 0},
		"one dentist":   {ids: []uuid.UUID{one}, want: 1},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			arg := dentistFilter(tc.ids)
			assert.NotNil(t, arg)
			assert.Len(t, arg, tc.want)

			// A nil buffer is how pgx sends SQL NULL.
			buf, err := m.Encode(pgtype.UUIDArrayOID, pgtype.BinaryFormatCode, arg, nil)
			require.NoError(t, err)
			assert.NotNil(t, buf)
		})
	}
}

func TestPgTimeRoundTrip(t *testing.T) {
	for _, raw := range []string{"00:00", "09:30", "17:45", "23:59"} {
		tod := MustParseTimeOfDay(raw)
		assert.Equal(t, tod, fromPgTime(toPgTime(tod)), raw)
	}
}
