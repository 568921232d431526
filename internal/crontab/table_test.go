package crontab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, commands ...string) *Table {
	t.Helper()
	table := NewTable()
	for _, cmd := range commands {
		rec, err := NewBuilder().Command(cmd).Build()
		require.NoError(t, err)
		table.Add(rec)
	}
	return table
}

func commands(table *Table) []string {
	var out []string
	for _, r := range table.Records() {
		out = append(out, r.Command())
	}
	return out
}

func TestTableMutation(t *testing.T) {
	t.Run("Add Keeps Order", func(t *testing.T) {
		table := newTestTable(t, "a", "b", "c")
		assert.Equal(t, []string{"a", "b", "c"}, commands(table))
	})

	t.Run("Remove", func(t *testing.T) {
		table := newTestTable(t, "a", "b", "c")
		removed, err := table.Remove(1)
		require.NoError(t, err)
		assert.Equal(t, "b", removed.Command())
		assert.Equal(t, []string{"a", "c"}, commands(table))
	})

	t.Run("Remove Out Of Range", func(t *testing.T) {
		table := newTestTable(t, "a", "b")
		for _, index := range []int{2, 5, -1} {
			_, err := table.Remove(index)
			assert.ErrorIs(t, err, ErrIndexOutOfRange)
		}
		assert.Equal(t, []string{"a", "b"}, commands(table))
	})

	t.Run("Insert", func(t *testing.T) {
		table := newTestTable(t, "a", "c")
		rec, err := NewBuilder().Command("b").Build()
		require.NoError(t, err)

		require.NoError(t, table.Insert(1, rec))
		require.NoError(t, table.Insert(3, rec.Clone()))
		assert.Equal(t, []string{"a", "b", "c", "b"}, commands(table))
		assert.ErrorIs(t, table.Insert(9, rec), ErrIndexOutOfRange)
	})

	t.Run("Replace And At", func(t *testing.T) {
		table := newTestTable(t, "a", "b")
		rec, err := NewBuilder().Command("z").Build()
		require.NoError(t, err)

		require.NoError(t, table.Replace(0, rec))
		got, err := table.At(0)
		require.NoError(t, err)
		assert.Equal(t, "z", got.Command())

		_, err = table.At(2)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		assert.ErrorIs(t, table.Replace(2, rec), ErrIndexOutOfRange)
	})

	t.Run("Records Is A Copy", func(t *testing.T) {
		table := newTestTable(t, "a")
		records := table.Records()
		records[0] = nil
		got, err := table.At(0)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})
}

func TestSerializeTable(t *testing.T) {
	text := "0 1 * * * first > /tmp/1\n#suspended: */5 * * * * second #note\n"
	table, warnings := ParseTable(text)
	require.Empty(t, warnings)

	assert.Equal(t, text, table.String())
	assert.Equal(t, text, SerializeTable(table.Records()))
	assert.Equal(t, "", SerializeTable(nil))

	again, warnings := ParseTable(table.String())
	require.Empty(t, warnings)
	require.Equal(t, table.Len(), again.Len())
	for i, r := range table.Records() {
		assert.True(t, r.Equal(again.Records()[i]))
	}
}
