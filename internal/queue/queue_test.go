package queue

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PushPopIsFIFO(t *testing.T) {
	q := New[string]()
	q.Push("a")
	q.Push("b")
	q.Push("c")

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueue_InsertShiftsLaterEntries(t *testing.T) {
	q := New[string]()
	q.Push("a")
	q.Push("b")
	q.Insert("x", 1)
	q.Insert("front", 0)
	q.Insert("end", q.Size())

	assert.Equal(t, []string{"front", "a", "x", "b", "end"}, q.Data())
}

func TestQueue_InsertAtZeroReversesIntoExecutionOrder(t *testing.T) {
	q := New[string]()
	q.Push("user")
	q.Insert("craft", 0)
	q.Insert("move", 0)
	q.Insert("withdraw", 0)

	assert.Equal(t, []string{"withdraw", "move", "craft", "user"}, q.Data())
}

func TestQueue_InsertClampsIndex(t *testing.T) {
	q := New[int]()
	q.Insert(1, 5)
	q.Insert(0, -3)
	assert.Equal(t, []int{0, 1}, q.Data())
}

func TestQueue_RemoveKeepsRelativeOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	got, ok := q.Remove(2)
	require.True(t, ok)
	assert.Equal(t, 2, got)
	assert.Equal(t, []int{0, 1, 3, 4}, q.Data())

	_, ok = q.Remove(10)
	assert.False(t, ok)
	_, ok = q.Remove(-1)
	assert.False(t, ok)
	assert.Equal(t, []int{0, 1, 3, 4}, q.Data())
}

func TestQueue_DataIsACopy(t *testing.T) {
	q := New[int]()
	q.Push(1)
	data := q.Data()
	data[0] = 42
	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, head)
}

func TestQueue_IndexFuncAndClear(t *testing.T) {
	q := New[string]()
	q.Push("a")
	q.Push("b")
	assert.Equal(t, 1, q.IndexFunc(func(s string) bool { return s == "b" }))
	assert.Equal(t, -1, q.IndexFunc(func(s string) bool { return s == "z" }))
	q.Clear()
	assert.Equal(t, 0, q.Size())
}

// Random push/insert/pop/remove sequences must match a plain slice model.
func TestQueue_MatchesReferenceModel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	q := New[int]()
	var model []int
	next := 0
	for step := 0; step < 2000; step++ {
		switch rng.Intn(4) {
		case 0:
			q.Push(next)
			model = append(model, next)
			next++
		case 1:
			i := rng.Intn(len(model) + 1)
			q.Insert(next, i)
			model = append(model[:i], append([]int{next}, model[i:]...)...)
			next++
		case 2:
			got, ok := q.Pop()
			if len(model) == 0 {
				require.False(t, ok)
				continue
			}
			require.True(t, ok)
			require.Equal(t, model[0], got)
			model = model[1:]
		case 3:
			if len(model) == 0 {
				continue
			}
			i := rng.Intn(len(model))
			q.Remove(i)
			model = append(model[:i], model[i+1:]...)
		}
		require.Equal(t, len(model), q.Size())
	}
	if len(model) == 0 {
		model = []int{}
	}
	assert.Equal(t, model, q.Data())
}
